package script

import (
	"errors"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-lua/pkg/server"
)

const (
	ModuleName     = "uhttpd"
	serverTypeName = "uhttpd.server"
)

func (r *Runtime) newModule(L *lua.LState) *lua.LTable {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"new":           r.luaNew,
		"send_header":   luaSendHeader,
		"append_header": luaAppendHeader,
		"header_end":    luaHeaderEnd,
		"send":          luaSend,
		"chunk_send":    luaChunkSend,
		"request_done":  luaRequestDone,
		"json_encode":   luaJSONEncode,
		"json_decode":   luaJSONDecode,
	})
	mod.RawSetString("VERSION", lua.LString(server.Version))
	return mod
}

// serverRef is the userdata value behind a script's server object.
type serverRef struct {
	rt *Runtime
	h  *server.Handle
}

func registerServerType(L *lua.LState) {
	mt := L.NewTypeMetatable(serverTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"add_action": luaAddAction,
		"free":       luaFree,
		"addr":       luaAddr,
	}))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		ref := checkServer(L, 1)
		L.Push(lua.LString(serverTypeName + " " + ref.h.Addr()))
		return 1
	}))
}

func checkServer(L *lua.LState, n int) *serverRef {
	ud := L.CheckUserData(n)
	if ref, ok := ud.Value.(*serverRef); ok {
		return ref
	}
	L.ArgError(n, serverTypeName+" expected")
	return nil
}

// uhttpd.new(address, port) -> server | nil, "Bind failed: <diag>"
func (r *Runtime) luaNew(L *lua.LState) int {
	address := L.CheckString(1)
	port := L.CheckInt(2)

	h, err := server.Create(address, port, r.serverOpts...)
	if err != nil {
		var be *server.BindError
		if errors.As(err, &be) {
			r.log.Warn("bind failed", zap.String("addr", be.Addr), zap.Error(be.Err))
			L.Push(lua.LNil)
			L.Push(lua.LString(msgBindFailed + ": " + be.Err.Error()))
			return 2
		}
		L.RaiseError("%s: %s", msgInvalidArgs, err.Error())
		return 0
	}
	// Lua only runs under r.mu
	r.handles = append(r.handles, h)

	ud := L.NewUserData()
	ud.Value = &serverRef{rt: r, h: h}
	L.SetMetatable(ud, L.GetTypeMetatable(serverTypeName))
	L.Push(ud)
	return 1
}

// srv:add_action(path, fn)
func luaAddAction(L *lua.LState) int {
	ref := checkServer(L, 1)
	if !ref.h.Alive() {
		L.RaiseError(msgNotInitialized)
		return 0
	}
	path := L.OptString(2, "")
	fn, ok := L.Get(3).(*lua.LFunction)
	if path == "" || !ok {
		L.RaiseError(msgInvalidArgs)
		return 0
	}

	err := ref.h.AddAction(path, &luaHandler{rt: ref.rt, path: path, fn: fn})
	switch {
	case err == nil:
	case errors.Is(err, server.ErrNotInitialized):
		L.RaiseError(msgNotInitialized)
	case errors.Is(err, server.ErrInvalidArgument):
		L.RaiseError(msgInvalidArgs)
	default:
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// srv:free() closes the listener now and drains in-flight requests in the
// background, so it is safe inside a handler. Repeated calls do nothing.
func luaFree(L *lua.LState) int {
	checkServer(L, 1).h.Release()
	return 0
}

func luaAddr(L *lua.LState) int {
	L.Push(lua.LString(checkServer(L, 1).h.Addr()))
	return 1
}
