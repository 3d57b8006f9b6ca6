// Package script embeds the Lua runtime and exposes the shell's host
// functions to it.
//
// A State owns one gopher-lua LState. Construction registers, in order:
// one function per executable on PATH, the fixed builtins (exit, find,
// setEnv, getEnv, history, source, run, drop), the env proxy table, and
// finally cd. Later registrations replace earlier ones with the same name.
package script

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/luash/internal/expand"
)

// History is the read side of the history log.
type History interface {
	All() []string
}

// Index is the executable index.
type Index interface {
	Names() []string
	FuzzyFind(pattern string) []string
}

// Terminal can hand the terminal to a child process.
type Terminal interface {
	Suspend() (resume func() error, err error)
}

// Host supplies the shell services the builtins operate on.
// Nil fields fall back to empty or process defaults.
type Host struct {
	History  History
	Index    Index
	Terminal Terminal

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Exit is called by the exit builtin to stop the session loop.
	Exit func()

	Expander *expand.Expander
	Logger   *zap.Logger
}

// State is the shell's Lua runtime.
//
// gopher-lua's LState is not goroutine-safe. The mutex serializes the Go
// entry points; host functions run inside them and use L directly.
type State struct {
	L *lua.LState

	mu     sync.Mutex
	host   Host
	exp    *expand.Expander
	logger *zap.Logger
	closed bool

	// lastArgErr is the most recent argument error raised into Lua.
	lastArgErr *InvalidArgumentError
}

// New creates a State with the full Lua standard library and the shell
// host functions installed.
func New(host Host) (*State, error) {
	if host.Stdin == nil {
		host.Stdin = os.Stdin
	}
	if host.Stdout == nil {
		host.Stdout = os.Stdout
	}
	if host.Stderr == nil {
		host.Stderr = os.Stderr
	}
	s := &State{
		L:      lua.NewState(),
		host:   host,
		exp:    host.Expander,
		logger: host.Logger,
	}
	if s.exp == nil {
		s.exp = expand.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	if err := s.doWithRecovery(s.install); err != nil {
		s.L.Close()
		return nil, fmt.Errorf("installing host functions: %w", err)
	}
	return s, nil
}

// install registers everything in its required order.
func (s *State) install() error {
	L := s.L

	if s.host.Index != nil {
		for _, name := range s.host.Index.Names() {
			if L.GetGlobal(name) != lua.LNil {
				continue
			}
			L.SetGlobal(name, L.NewFunction(s.executableFunc(name)))
		}
	}

	for name, fn := range map[string]lua.LGFunction{
		"exit":    s.luaExit,
		"find":    s.luaFind,
		"setEnv":  s.luaSetEnv,
		"getEnv":  s.luaGetEnv,
		"history": s.luaHistory,
		"source":  s.luaSource,
		"run":     s.luaRun,
		"drop":    s.luaDrop,
		"print":   s.luaPrint,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	if osTable, ok := L.GetGlobal("os").(*lua.LTable); ok {
		osTable.RawSetString("exit", L.NewFunction(s.luaExit))
	}
	L.SetGlobal("env", s.newEnvTable())

	L.SetGlobal("cd", L.NewFunction(s.luaCd))
	return nil
}

// doWithRecovery executes a function with panic recovery.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Eval compiles and runs one line of input in the global scope.
//
// The line is first compiled as an expression ("return <line>") and, if
// that fails, as a statement. Values it returns are written to stdout.
// Failures are *CompileError or *RuntimeError.
func (s *State) Eval(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	fn, err := s.L.Load(strings.NewReader("return "+line), "stdin")
	if err != nil {
		fn, err = s.L.Load(strings.NewReader(line), "stdin")
	}
	if err != nil {
		return &CompileError{Source: line, Err: err}
	}

	results, err := s.call(fn)
	if err != nil {
		return err
	}
	s.printResults(results)
	return nil
}

// Source runs the script at path in the global scope.
func (s *State) Source(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	fn, err := s.loadFile(s.exp.Path(path))
	if err != nil {
		return err
	}
	_, err = s.call(fn)
	return err
}

// loadFile reads and compiles a script. A missing file is reported on
// stderr before the read is attempted.
func (s *State) loadFile(path string) (*lua.LFunction, error) {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(s.host.Stderr, "File %s does not exist or missing permissions\n", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", path, err)
	}
	fn, err := s.L.Load(bytes.NewReader(data), path)
	if err != nil {
		return nil, &CompileError{Source: path, Err: err}
	}
	return fn, nil
}

// call runs fn in protected mode and returns its results.
func (s *State) call(fn *lua.LFunction) (results []lua.LValue, err error) {
	L := s.L
	s.lastArgErr = nil
	top := L.GetTop()

	L.Push(fn)
	callErr := s.doWithRecovery(func() error {
		return L.PCall(0, lua.MultRet, nil)
	})
	if callErr != nil {
		L.SetTop(top)
		rerr := &RuntimeError{Err: callErr}
		if s.lastArgErr != nil && strings.Contains(callErr.Error(), s.lastArgErr.Error()) {
			rerr.Cause = s.lastArgErr
		}
		return nil, rerr
	}

	n := L.GetTop() - top
	results = make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		results[i] = L.Get(top + i + 1)
	}
	L.SetTop(top)
	return results, nil
}

// printResults writes non-nil results separated by tabs.
func (s *State) printResults(results []lua.LValue) {
	allNil := true
	for _, v := range results {
		if v != lua.LNil {
			allNil = false
			break
		}
	}
	if allNil {
		return
	}
	fmt.Fprintln(s.host.Stdout, s.join(results))
}

func (s *State) join(vals []lua.LValue) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = s.L.ToStringMeta(v).String()
	}
	return strings.Join(parts, "\t")
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. Further calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
