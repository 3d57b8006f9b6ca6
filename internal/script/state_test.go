package script

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	glua "github.com/yuin/gopher-lua"
	"go.uber.org/goleak"

	"github.com/dshills/luash/internal/executable"
	"github.com/dshills/luash/internal/expand"
	"github.com/dshills/luash/internal/history"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTerminal struct {
	suspends int
	resumes  int
}

func (f *fakeTerminal) Suspend() (func() error, error) {
	f.suspends++
	return func() error {
		f.resumes++
		return nil
	}, nil
}

type fixture struct {
	state   *State
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	history *history.Store
	term    *fakeTerminal
	exited  int
	home    string
}

func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	f := &fixture{
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
		history: history.New(""),
		term:    &fakeTerminal{},
		home:    t.TempDir(),
	}
	state, err := New(Host{
		History:  f.history,
		Index:    executable.FromNames(names...),
		Terminal: f.term,
		Stdin:    strings.NewReader(""),
		Stdout:   f.stdout,
		Stderr:   f.stderr,
		Exit:     func() { f.exited++ },
		Expander: expand.NewWith(func() (string, error) { return f.home, nil }, nil),
	})
	require.NoError(t, err)
	t.Cleanup(func() { state.Close() })
	f.state = state
	return f
}

func (f *fixture) eval(t *testing.T, line string) {
	t.Helper()
	require.NoError(t, f.state.Eval(line), "Eval(%q)", line)
}

func TestEvalExpressionPrintsResult(t *testing.T) {
	f := newFixture(t)
	f.eval(t, "1 + 2")
	f.eval(t, `"a", 2, true`)
	assert.Equal(t, "3\na\t2\ttrue\n", f.stdout.String())
}

func TestEvalStatement(t *testing.T) {
	f := newFixture(t)
	f.eval(t, "x = 40 + 2")
	assert.Empty(t, f.stdout.String())

	v, ok := f.state.GetGlobal("x").(glua.LNumber)
	require.True(t, ok)
	assert.Equal(t, glua.LNumber(42), v)
}

func TestEvalNilResultNotPrinted(t *testing.T) {
	f := newFixture(t)
	f.eval(t, "nil")
	f.eval(t, "undefinedName")
	assert.Empty(t, f.stdout.String())
}

func TestEvalCompileError(t *testing.T) {
	f := newFixture(t)
	err := f.state.Eval("1 +")

	var cerr *CompileError
	require.True(t, errors.As(err, &cerr), "got %T: %v", err, err)
	assert.Equal(t, "1 +", cerr.Source)
	assert.NotContains(t, cerr.Error(), "stack traceback")
}

func TestEvalRuntimeError(t *testing.T) {
	f := newFixture(t)
	err := f.state.Eval(`error("boom")`)

	var rerr *RuntimeError
	require.True(t, errors.As(err, &rerr), "got %T: %v", err, err)
	assert.Contains(t, rerr.Error(), "boom")
	assert.Nil(t, rerr.Cause)

	// The state stays usable.
	f.eval(t, "y = 1")
}

func TestPrintWritesToStdout(t *testing.T) {
	f := newFixture(t)
	f.eval(t, `print("a", 1, nil)`)
	assert.Equal(t, "a\t1\tnil\n", f.stdout.String())
}

func TestSetEnvGetEnv(t *testing.T) {
	t.Setenv("LUASH_TEST_FOO", "")
	os.Unsetenv("LUASH_TEST_FOO")
	f := newFixture(t)

	f.eval(t, `missing = getEnv("LUASH_TEST_FOO")`)
	assert.Equal(t, glua.LNil, f.state.GetGlobal("missing"))

	f.eval(t, `setEnv("LUASH_TEST_FOO", "bar")`)
	assert.Equal(t, "bar", os.Getenv("LUASH_TEST_FOO"))

	f.eval(t, `getEnv("LUASH_TEST_FOO")`)
	assert.Equal(t, "bar\n", f.stdout.String())
}

func TestInvalidArguments(t *testing.T) {
	tests := []struct {
		line string
		want InvalidArgumentError
	}{
		{`setEnv(1, "x")`, InvalidArgumentError{Func: "setEnv", Pos: 1, Want: "string", Got: "number"}},
		{`setEnv("X")`, InvalidArgumentError{Func: "setEnv", Pos: 2, Want: "string", Got: "no value"}},
		{`getEnv({})`, InvalidArgumentError{Func: "getEnv", Pos: 1, Want: "string", Got: "table"}},
		{`find(true)`, InvalidArgumentError{Func: "find", Pos: 1, Want: "string", Got: "boolean"}},
		{`source()`, InvalidArgumentError{Func: "source", Pos: 1, Want: "string", Got: "no value"}},
		{`cd(5)`, InvalidArgumentError{Func: "cd", Pos: 1, Want: "string or nil", Got: "number"}},
		{`run(1, {})`, InvalidArgumentError{Func: "run", Pos: 1, Want: "command", Got: "no words"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			f := newFixture(t)
			err := f.state.Eval(tt.line)

			var argErr *InvalidArgumentError
			require.True(t, errors.As(err, &argErr), "got %T: %v", err, err)
			assert.Equal(t, tt.want, *argErr)

			var rerr *RuntimeError
			assert.True(t, errors.As(err, &rerr))
		})
	}
}

func TestInvalidArgumentCatchableWithPcall(t *testing.T) {
	f := newFixture(t)
	f.eval(t, `ok, msg = pcall(getEnv, 42)`)

	assert.Equal(t, glua.LFalse, f.state.GetGlobal("ok"))
	assert.Contains(t, f.state.GetGlobal("msg").String(), "bad argument #1 to 'getEnv' (string expected, got number)")
}

func TestHistoryBuiltin(t *testing.T) {
	f := newFixture(t)
	f.history.Append("ls")
	f.history.Append("print(1)")

	f.eval(t, `h = history()`)
	f.eval(t, `#h, h[1], h[2]`)
	assert.Equal(t, "2\tls\tprint(1)\n", f.stdout.String())
}

func TestFindBuiltin(t *testing.T) {
	f := newFixture(t, "git", "gitk", "ls")
	f.eval(t, `find("git")`)
	lines := strings.Split(strings.TrimSpace(f.stdout.String()), "\n")
	assert.Equal(t, []string{"git", "gitk"}, lines)
}

func TestDrop(t *testing.T) {
	f := newFixture(t)
	f.eval(t, "x = 1")
	f.eval(t, "z = 2")
	f.eval(t, `drop("x", 5, "nonexistent")`)

	assert.Equal(t, glua.LNil, f.state.GetGlobal("x"))
	assert.NotEqual(t, glua.LNil, f.state.GetGlobal("z"))
}

func TestDropDoesNotReachLocals(t *testing.T) {
	f := newFixture(t)
	f.eval(t, `do local y = 7; drop("y"); print(y) end`)
	assert.Equal(t, "7\n", f.stdout.String())
}

func TestExit(t *testing.T) {
	f := newFixture(t)
	f.eval(t, "exit()")
	assert.Equal(t, 1, f.exited)
	f.eval(t, "os.exit(0)")
	assert.Equal(t, 2, f.exited)
}

func TestSourceBuiltin(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "init.lua")
	require.NoError(t, os.WriteFile(path, []byte("sourced = 41 + 1\n"), 0o644))

	f.eval(t, fmt.Sprintf("source(%q)", path))
	assert.Equal(t, glua.LNumber(42), f.state.GetGlobal("sourced"))
	assert.Empty(t, f.stderr.String())
}

func TestSourceExpandsTilde(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.home, "rc.lua"), []byte("fromHome = true"), 0o644))

	f.eval(t, `source("~/rc.lua")`)
	assert.Equal(t, glua.LTrue, f.state.GetGlobal("fromHome"))
}

func TestSourceMissingFile(t *testing.T) {
	f := newFixture(t)
	missing := filepath.Join(t.TempDir(), "nope.lua")

	err := f.state.Eval(fmt.Sprintf("source(%q)", missing))
	var rerr *RuntimeError
	require.True(t, errors.As(err, &rerr), "got %T: %v", err, err)
	assert.Contains(t, f.stderr.String(), "File "+missing+" does not exist or missing permissions")

	// The loop can carry on.
	f.eval(t, "after = 1")
}

func TestSourceCompileError(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "bad.lua")
	require.NoError(t, os.WriteFile(path, []byte("x = = 1"), 0o644))

	err := f.state.Source(path)
	var cerr *CompileError
	require.True(t, errors.As(err, &cerr), "got %T: %v", err, err)
}

func TestStateSource(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "start.lua")
	require.NoError(t, os.WriteFile(path, []byte(`greeting = "hi"`), 0o644))

	require.NoError(t, f.state.Source(path))
	assert.Equal(t, "hi", f.state.GetGlobal("greeting").String())

	err := f.state.Source(filepath.Join(t.TempDir(), "missing.lua"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvProxy(t *testing.T) {
	t.Setenv("LUASH_TEST_ENV", "")
	f := newFixture(t)

	f.eval(t, `env.LUASH_TEST_ENV = "v1"`)
	assert.Equal(t, "v1", os.Getenv("LUASH_TEST_ENV"))

	f.eval(t, `env.LUASH_TEST_ENV`)
	assert.Equal(t, "v1\n", f.stdout.String())

	f.eval(t, `env.LUASH_TEST_ENV = nil`)
	_, ok := os.LookupEnv("LUASH_TEST_ENV")
	assert.False(t, ok)

	err := f.state.Eval(`env.LUASH_TEST_ENV = {}`)
	assert.Error(t, err)
}

func TestExecutablesDoNotShadowGlobals(t *testing.T) {
	f := newFixture(t, "type", "print", "find", "cd", "mytool")

	f.eval(t, `type(1)`)
	assert.Equal(t, "number\n", f.stdout.String())

	assert.Equal(t, glua.LTFunction, f.state.GetGlobal("mytool").Type())

	// find and cd are the builtins, not spawned programs.
	f.stdout.Reset()
	f.eval(t, `find("myt")`)
	assert.Equal(t, "mytool\n", f.stdout.String())
	assert.Equal(t, 0, f.term.suspends)
}

func chdirBack(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Setenv("PWD", os.Getenv("PWD"))
	t.Setenv("OLDPWD", os.Getenv("OLDPWD"))
	t.Cleanup(func() { os.Chdir(wd) })
}

func sameDir(t *testing.T, want, got string) {
	t.Helper()
	w, err := filepath.EvalSymlinks(want)
	require.NoError(t, err)
	g, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, w, g)
}

func TestCd(t *testing.T) {
	chdirBack(t)
	f := newFixture(t, "cd")
	dir := t.TempDir()
	start, _ := os.Getwd()

	f.eval(t, fmt.Sprintf("cd(%q)", dir))
	wd, _ := os.Getwd()
	sameDir(t, dir, wd)
	sameDir(t, dir, os.Getenv("PWD"))
	sameDir(t, start, os.Getenv("OLDPWD"))
	assert.Equal(t, 0, f.term.suspends, "cd must not spawn a program")

	f.eval(t, "cd()")
	wd, _ = os.Getwd()
	sameDir(t, f.home, wd)

	f.eval(t, `cd("-")`)
	wd, _ = os.Getwd()
	sameDir(t, dir, wd)

	f.eval(t, `cd("~")`)
	wd, _ = os.Getwd()
	sameDir(t, f.home, wd)
}

func TestCdFailureIsReported(t *testing.T) {
	chdirBack(t)
	f := newFixture(t)
	before, _ := os.Getwd()

	f.eval(t, `cd("/definitely/not/here")`)
	after, _ := os.Getwd()
	assert.Equal(t, before, after)
	assert.Contains(t, f.stderr.String(), "cd:")
}

func TestCloseState(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.state.Close())
	assert.True(t, f.state.IsClosed())
	assert.ErrorIs(t, f.state.Eval("1"), ErrStateClosed)
	assert.ErrorIs(t, f.state.Source("x"), ErrStateClosed)
	assert.Equal(t, glua.LNil, f.state.GetGlobal("print"))
	require.NoError(t, f.state.Close())
}

func requireProgram(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}
