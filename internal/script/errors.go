package script

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// ErrStateClosed is returned when operating on a closed state.
var ErrStateClosed = errors.New("lua state is closed")

// InvalidArgumentError reports a host function called with an argument of
// the wrong type. It is raised into Lua as a script error.
type InvalidArgumentError struct {
	Func string // host function name
	Pos  int    // 1-based argument position
	Want string // expected shape, e.g. "string"
	Got  string // Lua type name of the value received
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("bad argument #%d to '%s' (%s expected, got %s)", e.Pos, e.Func, e.Want, e.Got)
}

// CompileError reports source that could not be compiled.
type CompileError struct {
	Source string
	Err    error
}

func (e *CompileError) Error() string {
	return luaMessage(e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// RuntimeError reports a failure while running compiled code.
// Cause holds the host-side error that raised it, if any.
type RuntimeError struct {
	Err   error
	Cause error
}

func (e *RuntimeError) Error() string {
	return luaMessage(e.Err)
}

// Unwrap returns both the Lua error and the host cause.
func (e *RuntimeError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// luaMessage returns the error message without the Lua stack trace.
func luaMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
