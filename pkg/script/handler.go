package script

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/joeydtaylor/steeze-lua/pkg/request"
)

// luaHandler adapts a Lua function to action.Handler.
type luaHandler struct {
	rt   *Runtime
	path string
	fn   *lua.LFunction
}

func (h *luaHandler) ServeAction(tok *request.Token, ctx *request.Context) error {
	r := h.rt
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	L := r.l
	var deadline context.Context
	if r.handlerTimeout > 0 {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), r.handlerTimeout)
		defer cancel()
		L.SetContext(deadline)
		defer L.RemoveContext()
	}

	ud, ref := newRequest(L, tok)
	err := L.CallByParam(lua.P{Fn: h.fn, NRet: 0, Protect: true}, ud, contextTable(L, ctx))
	if err == nil {
		return nil
	}
	switch {
	case raisedBy(err, ref.err):
		return fmt.Errorf("lua action %s: %w", h.path, ref.err)
	case deadline != nil && errors.Is(deadline.Err(), context.DeadlineExceeded):
		return fmt.Errorf("lua action %s: %w after %s", h.path, ErrHandlerTimeout, r.handlerTimeout)
	}
	return fmt.Errorf("lua action %s: %w", h.path, err)
}

// raisedBy reports whether the Lua error err carries the message of the
// emitter failure cause. A failure caught with pcall and followed by an
// unrelated error does not match.
func raisedBy(err, cause error) bool {
	if cause == nil {
		return false
	}
	var ae *lua.ApiError
	if !errors.As(err, &ae) || ae.Object == nil {
		return false
	}
	return strings.Contains(ae.Object.String(), cause.Error())
}
