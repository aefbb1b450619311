package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/joeydtaylor/steeze-lua/pkg/request"
)

const requestTypeName = "uhttpd.request"

// requestRef is the userdata value behind a handler's req argument. err is
// the error of the latest emitter call, so the dispatch can report the typed
// error when that is what the handler died of.
type requestRef struct {
	tok *request.Token
	err error
}

func registerRequestType(L *lua.LState) {
	mt := L.NewTypeMetatable(requestTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"send_header":   luaSendHeader,
		"append_header": luaAppendHeader,
		"header_end":    luaHeaderEnd,
		"send":          luaSend,
		"chunk_send":    luaChunkSend,
		"request_done":  luaRequestDone,
		"header":        luaRequestHeader,
	}))
}

func newRequest(L *lua.LState, tok *request.Token) (*lua.LUserData, *requestRef) {
	ref := &requestRef{tok: tok}
	ud := L.NewUserData()
	ud.Value = ref
	L.SetMetatable(ud, L.GetTypeMetatable(requestTypeName))
	return ud, ref
}

func checkRequest(L *lua.LState, n int) *requestRef {
	ud := L.CheckUserData(n)
	if ref, ok := ud.Value.(*requestRef); ok {
		return ref
	}
	L.ArgError(n, requestTypeName+" expected")
	return nil
}

// emitted records the outcome of the latest emitter call and raises its
// error into Lua.
func emitted(L *lua.LState, ref *requestRef, err error) int {
	ref.err = err
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// send_header(req, code, reason, length); a negative length selects chunked
// framing.
func luaSendHeader(L *lua.LState) int {
	ref := checkRequest(L, 1)
	code := L.CheckInt(2)
	reason := L.OptString(3, "")
	length := L.CheckInt64(4)
	return emitted(L, ref, ref.tok.SendHeader(code, reason, length))
}

func luaAppendHeader(L *lua.LState) int {
	ref := checkRequest(L, 1)
	name := L.CheckString(2)
	value := L.CheckString(3)
	return emitted(L, ref, ref.tok.AppendHeader(name, value))
}

func luaHeaderEnd(L *lua.LState) int {
	ref := checkRequest(L, 1)
	return emitted(L, ref, ref.tok.HeaderEnd())
}

func luaSend(L *lua.LState) int {
	ref := checkRequest(L, 1)
	data := L.CheckString(2)
	return emitted(L, ref, ref.tok.Send([]byte(data)))
}

func luaChunkSend(L *lua.LState) int {
	ref := checkRequest(L, 1)
	data := L.CheckString(2)
	return emitted(L, ref, ref.tok.ChunkSend([]byte(data)))
}

func luaRequestDone(L *lua.LState) int {
	ref := checkRequest(L, 1)
	return emitted(L, ref, ref.tok.RequestDone())
}

// req:header(name) returns a request header value or nil.
func luaRequestHeader(L *lua.LState) int {
	ref := checkRequest(L, 1)
	if v := ref.tok.Header(L.CheckString(2)); v != "" {
		L.Push(lua.LString(v))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

func contextTable(L *lua.LState, c *request.Context) *lua.LTable {
	vars := L.CreateTable(0, len(c.Vars))
	for k, v := range c.Vars {
		vars.RawSetString(k, lua.LString(v))
	}

	t := L.CreateTable(0, 10)
	t.RawSetString("peer_addr", lua.LString(c.PeerAddr))
	t.RawSetString("url", lua.LString(c.URL))
	t.RawSetString("query", lua.LString(c.Query))
	t.RawSetString("body", lua.LString(c.Body))
	t.RawSetString("vars", vars)
	t.RawSetString("method", lua.LString(c.Method))
	t.RawSetString("path", lua.LString(c.Path))
	if c.User != "" {
		t.RawSetString("user", lua.LString(c.User))
	}
	if c.Role != "" {
		t.RawSetString("role", lua.LString(c.Role))
	}
	return t
}
