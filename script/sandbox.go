package script

import lua "github.com/yuin/gopher-lua"

// openSafeLibraries opens the libraries that cannot reach outside of the
// state.  io, os, debug, package and channel are left out.
func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

// sandbox removes the base functions that load code from disk or strings.
func sandbox(L *lua.LState) {
	for _, name := range []string{
		"dofile",
		"loadfile",
		"load",
		"loadstring",
		"require",
		"module",
	} {
		L.SetGlobal(name, lua.LNil)
	}
}
