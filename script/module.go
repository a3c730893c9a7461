package script

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"git.sr.ht/~taiite/ircchain/irc"
)

// installModule exposes the connection to scripts as the global "irc"
// table.
func (h *Host) installModule() {
	mod := h.L.SetFuncs(h.L.NewTable(), map[string]lua.LGFunction{
		"on":     h.luaOn,
		"msg":    h.send(h.conn.PrivMsg),
		"notice": h.send(h.conn.Notice),
		"act":    h.send(h.conn.Act),
		"join":   h.luaJoin,
		"part":   h.luaPart,
		"raw":    h.luaRaw,
		"nick":   h.luaNick,
	})
	h.L.SetGlobal("irc", mod)
}

// irc.on(name, fn) registers fn for an incoming event.
func (h *Host) luaOn(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	if !strings.HasPrefix(strings.ToLower(name), "incoming_") {
		L.ArgError(1, "only incoming events can be handled by scripts")
		return 0
	}
	if err := h.conn.Handle(name, h.handler(name, fn)); err != nil {
		L.RaiseError("cannot handle %s: %v", name, err)
	}
	return 0
}

// send adapts a (target, text) helper.  Like the io library, it returns true
// on success and nil plus a message on failure.
func (h *Host) send(f func(target, text string) error) lua.LGFunction {
	return func(L *lua.LState) int {
		return pushResult(L, f(L.CheckString(1), L.CheckString(2)))
	}
}

// irc.join(channel [, key])
func (h *Host) luaJoin(L *lua.LState) int {
	return pushResult(L, h.conn.Join(L.CheckString(1), L.OptString(2, "")))
}

// irc.part(channel [, reason])
func (h *Host) luaPart(L *lua.LState) int {
	return pushResult(L, h.conn.Part(L.CheckString(1), L.OptString(2, "")))
}

func (h *Host) luaRaw(L *lua.LState) int {
	return pushResult(L, h.conn.SendRaw(L.CheckString(1)))
}

func (h *Host) luaNick(L *lua.LState) int {
	L.Push(lua.LString(h.conn.Nick()))
	return 1
}

func pushResult(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// eventTable converts ev into the table handed to Lua handlers.  Fields are
// named after the event's, in lower case.
func eventTable(L *lua.LState, ev *irc.Event) *lua.LTable {
	t := L.CreateTable(0, 20)
	t.RawSetString("type", lua.LString(ev.Type.String()))
	t.RawSetString("raw", lua.LString(ev.Raw))
	t.RawSetString("outgoing", lua.LBool(ev.Outgoing))
	t.RawSetString("fullname", lua.LString(ev.Fullname))
	t.RawSetString("nick", lua.LString(ev.Nick))
	t.RawSetString("user", lua.LString(ev.User))
	t.RawSetString("host", lua.LString(ev.Host))
	t.RawSetString("servername", lua.LString(ev.Servername))
	t.RawSetString("channel", lua.LString(ev.Channel))
	t.RawSetString("target", lua.LString(ev.Target))
	t.RawSetString("text", lua.LString(ev.Text))
	t.RawSetString("private", lua.LBool(ev.IsPrivate()))
	t.RawSetString("targets", stringList(L, ev.Targets))

	if ev.Type == irc.EventNumeric {
		t.RawSetString("numeric", lua.LNumber(ev.Numeric))
		t.RawSetString("name", lua.LString(ev.Name))
		t.RawSetString("params", stringList(L, ev.Params))
	}

	tags := L.CreateTable(0, len(ev.Tags))
	for k, v := range ev.Tags {
		tags.RawSetString(k, lua.LString(v))
	}
	t.RawSetString("tags", tags)

	if ev.Parent != nil {
		t.RawSetString("parent", eventTable(L, ev.Parent))
	}
	return t
}

func stringList(L *lua.LState, list []string) *lua.LTable {
	t := L.CreateTable(len(list), 0)
	for _, s := range list {
		t.Append(lua.LString(s))
	}
	return t
}
