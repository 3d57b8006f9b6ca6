package script

import (
	"errors"
	"os"
	"os/exec"
	"regexp"
	"syscall"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/luash/internal/expand"
)

// tokenPattern matches a double-quoted span, a single-quoted span or a
// run of non-whitespace.
var tokenPattern = regexp.MustCompile(`"[^"]*"|'[^']*'|\S+`)

// Tokenize splits each argument into words, strips surrounding quotes and
// expands a leading "~". Quoted words keep their inner whitespace.
func Tokenize(exp *expand.Expander, args ...string) []string {
	var words []string
	for _, arg := range args {
		for _, w := range tokenPattern.FindAllString(arg, -1) {
			words = append(words, exp.Tilde(unquote(w)))
		}
	}
	return words
}

func unquote(w string) string {
	if len(w) >= 2 {
		q := w[0]
		if (q == '"' || q == '\'') && w[len(w)-1] == q {
			return w[1 : len(w)-1]
		}
	}
	return w
}

// luaRun implements run(...): the words of all string arguments form one
// command line. The exit code is stored in the global "status".
func (s *State) luaRun(L *lua.LState) int {
	return s.runCommand(L, Tokenize(s.exp, StringArgs(L, 1)...))
}

// executableFunc returns the function installed for an indexed program.
// The name is used verbatim; only the arguments are tokenized.
func (s *State) executableFunc(name string) lua.LGFunction {
	return func(L *lua.LState) int {
		argv := append([]string{name}, Tokenize(s.exp, StringArgs(L, 1)...)...)
		return s.runCommand(L, argv)
	}
}

func (s *State) runCommand(L *lua.LState, argv []string) int {
	if len(argv) == 0 {
		s.raise(L, &InvalidArgumentError{Func: "run", Pos: 1, Want: "command", Got: "no words"})
	}
	code, err := s.spawn(argv)
	if err != nil {
		L.RaiseError("run %s: %v", argv[0], err)
	}
	L.SetGlobal("status", lua.LNumber(code))
	return 0
}

// spawn runs argv in the foreground with the terminal in cooked mode and
// returns its exit code. Raw mode is re-entered after the child exits,
// whatever its status.
func (s *State) spawn(argv []string) (code int, err error) {
	if s.host.Terminal != nil {
		resume, serr := s.host.Terminal.Suspend()
		if serr != nil {
			return -1, serr
		}
		defer func() {
			if rerr := resume(); rerr != nil && err == nil {
				err = rerr
			}
		}()
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = s.host.Stdin
	cmd.Stdout = s.host.Stdout
	cmd.Stderr = s.host.Stderr
	cmd.Env = os.Environ()

	s.logger.Debug("spawning", zap.Strings("argv", argv))
	err = cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			code = 128 + int(ws.Signal())
		}
		s.logger.Debug("child exited", zap.String("cmd", argv[0]), zap.Int("code", code))
		return code, nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}
