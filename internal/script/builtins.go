package script

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// raise records err and raises it as a Lua error. It does not return.
func (s *State) raise(L *lua.LState, err error) {
	if argErr, ok := err.(*InvalidArgumentError); ok {
		s.lastArgErr = argErr
	}
	L.RaiseError("%s", err.Error())
}

func (s *State) luaExit(L *lua.LState) int {
	s.logger.Debug("exit requested")
	if s.host.Exit != nil {
		s.host.Exit()
	}
	return 0
}

func (s *State) luaPrint(L *lua.LState) int {
	top := L.GetTop()
	vals := make([]lua.LValue, top)
	for i := 1; i <= top; i++ {
		vals[i-1] = L.Get(i)
	}
	fmt.Fprintln(s.host.Stdout, s.join(vals))
	return 0
}

func (s *State) luaFind(L *lua.LState) int {
	args, _, err := CheckArgs("find", L, ArgString)
	if err != nil {
		s.raise(L, err)
	}
	if s.host.Index == nil {
		return 0
	}
	for _, name := range s.host.Index.FuzzyFind(args[0]) {
		fmt.Fprintln(s.host.Stdout, name)
	}
	return 0
}

func (s *State) luaSetEnv(L *lua.LState) int {
	args, _, err := CheckArgs("setEnv", L, ArgString, ArgString)
	if err != nil {
		s.raise(L, err)
	}
	if err := os.Setenv(args[0], args[1]); err != nil {
		L.RaiseError("setEnv: %v", err)
	}
	return 0
}

func (s *State) luaGetEnv(L *lua.LState) int {
	args, _, err := CheckArgs("getEnv", L, ArgString)
	if err != nil {
		s.raise(L, err)
	}
	v, ok := os.LookupEnv(args[0])
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(v))
	return 1
}

func (s *State) luaHistory(L *lua.LState) int {
	t := L.NewTable()
	if s.host.History != nil {
		for i, line := range s.host.History.All() {
			t.RawSetInt(i+1, lua.LString(line))
		}
	}
	L.Push(t)
	return 1
}

func (s *State) luaSource(L *lua.LState) int {
	args, _, err := CheckArgs("source", L, ArgString)
	if err != nil {
		s.raise(L, err)
	}
	fn, err := s.loadFile(s.exp.Path(args[0]))
	if err != nil {
		s.raise(L, err)
	}
	L.Push(fn)
	L.Call(0, 0)
	return 0
}

// luaDrop removes names from the global table. Locals are unaffected.
func (s *State) luaDrop(L *lua.LState) int {
	globals := L.G.Global
	for _, name := range StringArgs(L, 1) {
		globals.RawSetString(name, lua.LNil)
	}
	return 0
}

func (s *State) luaCd(L *lua.LState) int {
	args, present, err := CheckArgs("cd", L, ArgOptString)
	if err != nil {
		s.raise(L, err)
	}

	var dir string
	switch {
	case !present[0] || args[0] == "~":
		home, err := s.exp.Home()
		if err != nil {
			fmt.Fprintf(s.host.Stderr, "cd: %v\n", err)
			return 0
		}
		dir = home
	case args[0] == "-":
		dir = os.Getenv("OLDPWD")
		if dir == "" {
			fmt.Fprintln(s.host.Stderr, "cd: OLDPWD not set")
			return 0
		}
	default:
		dir = s.exp.Path(args[0])
	}

	if err := chdir(dir); err != nil {
		s.logger.Debug("cd failed", zap.String("dir", dir), zap.Error(err))
		fmt.Fprintf(s.host.Stderr, "cd: %v\n", err)
	}
	return 0
}

// chdir changes the working directory and updates PWD and OLDPWD.
func chdir(dir string) error {
	old, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		return err
	}
	if old != "" {
		os.Setenv("OLDPWD", old)
	}
	if wd, err := os.Getwd(); err == nil {
		os.Setenv("PWD", wd)
	}
	return nil
}

// newEnvTable returns a proxy table that reads and writes the process
// environment: env.HOME, env.PATH = "...", env.FOO = nil to unset.
func (s *State) newEnvTable() *lua.LTable {
	L := s.L
	t := L.NewTable()
	mt := L.NewTable()
	mt.RawSetString("__index", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		if v, ok := os.LookupEnv(name); ok {
			L.Push(lua.LString(v))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))
	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		v := L.Get(3)
		var err error
		switch v.Type() {
		case lua.LTNil:
			err = os.Unsetenv(name)
		case lua.LTString, lua.LTNumber:
			err = os.Setenv(name, v.String())
		default:
			L.ArgError(3, "string expected, got "+v.Type().String())
		}
		if err != nil {
			L.RaiseError("env.%s: %v", name, err)
		}
		return 0
	}))
	L.SetMetatable(t, mt)
	return t
}
