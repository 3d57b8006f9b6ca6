package script

import (
	lua "github.com/yuin/gopher-lua"
)

// ArgKind is the shape a host function accepts at one argument position.
type ArgKind int

const (
	// ArgString requires a string.
	ArgString ArgKind = iota
	// ArgOptString accepts a string, nil or nothing.
	ArgOptString
)

func (k ArgKind) String() string {
	if k == ArgOptString {
		return "string or nil"
	}
	return "string"
}

// CheckArgs matches the values on L's stack against kinds. Absent optional
// arguments are returned as "" with present[i] false.
func CheckArgs(fn string, L *lua.LState, kinds ...ArgKind) (vals []string, present []bool, err error) {
	vals = make([]string, len(kinds))
	present = make([]bool, len(kinds))
	for i, kind := range kinds {
		v := L.Get(i + 1)
		switch s := v.(type) {
		case lua.LString:
			vals[i] = string(s)
			present[i] = true
			continue
		}
		if kind == ArgOptString && v == lua.LNil {
			continue
		}
		return nil, nil, &InvalidArgumentError{
			Func: fn,
			Pos:  i + 1,
			Want: kind.String(),
			Got:  typeName(L, i+1),
		}
	}
	return vals, present, nil
}

// StringArgs returns every string argument on L's stack from position
// start, skipping values of other types.
func StringArgs(L *lua.LState, start int) []string {
	var out []string
	for i := start; i <= L.GetTop(); i++ {
		if s, ok := L.Get(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

func typeName(L *lua.LState, n int) string {
	if n > L.GetTop() {
		return "no value"
	}
	return L.Get(n).Type().String()
}
