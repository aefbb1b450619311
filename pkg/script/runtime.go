package script

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-lua/pkg/action"
	"github.com/joeydtaylor/steeze-lua/pkg/server"
)

// Runtime owns one Lua state and every server handle its scripts create.
//
// All entries into Lua (DoFile, DoString and handler dispatch) hold mu, so at
// most one request is inside Lua at any time.
type Runtime struct {
	l   *lua.LState
	log *zap.Logger

	serverOpts     []server.Option
	registry       *action.Registry
	handlerTimeout time.Duration

	mu      sync.Mutex
	handles []*server.Handle
	closed  bool
	done    chan struct{}
}

// Option configures a Runtime.
type Option func(*Runtime)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.log = l
		}
	}
}

// WithServerOptions applies opts to every server created by uhttpd.new.
func WithServerOptions(opts ...server.Option) Option {
	return func(r *Runtime) { r.serverOpts = append(r.serverOpts, opts...) }
}

// WithSharedRegistry makes every server created by scripts dispatch from one
// registry, so an action added on one server is served by all of them.
func WithSharedRegistry() Option {
	return func(r *Runtime) { r.registry = action.NewRegistry() }
}

// WithHandlerTimeout aborts a Lua handler that runs longer than d.
func WithHandlerTimeout(d time.Duration) Option {
	return func(r *Runtime) { r.handlerTimeout = d }
}

// New creates a runtime with the base, table, string, math and package
// libraries and the uhttpd module installed.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		log:  zap.NewNop(),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry != nil {
		r.serverOpts = append(r.serverOpts, server.WithRegistry(r.registry))
	}
	r.serverOpts = append([]server.Option{server.WithLogger(r.log)}, r.serverOpts...)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenPackage(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	L.SetGlobal("print", L.NewFunction(r.luaPrint))

	registerRequestType(L)
	registerServerType(L)

	mod := r.newModule(L)
	L.SetGlobal(ModuleName, mod)
	L.PreloadModule(ModuleName, func(L *lua.LState) int {
		L.Push(mod)
		return 1
	})

	r.l = L
	return r
}

// DoFile runs a script file.
func (r *Runtime) DoFile(path string) error {
	err := r.do(func(L *lua.LState) error { return L.DoFile(path) })
	if err == nil {
		r.log.Info("script loaded", zap.String("path", path))
	}
	return err
}

// DoString runs a chunk of Lua source.
func (r *Runtime) DoString(src string) error {
	return r.do(func(L *lua.LState) error { return L.DoString(src) })
}

func (r *Runtime) do(fn func(L *lua.LState) error) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("lua panic: %v", p)
		}
	}()
	return fn(r.l)
}

// Run blocks until ctx is done or the runtime is closed. It stands in for the
// event loop scripts would otherwise start themselves.
func (r *Runtime) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return nil
	}
}

// Handles returns the servers created by scripts that are still alive.
func (r *Runtime) Handles() []*server.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*server.Handle, 0, len(r.handles))
	for _, h := range r.handles {
		if h.Alive() {
			out = append(out, h)
		}
	}
	return out
}

// Close shuts down every server the scripts created and releases the Lua
// state. Handles already freed by scripts are skipped by their own liveness
// check. Calls after the first are no-ops.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	handles := r.handles
	r.handles = nil
	close(r.done)
	r.mu.Unlock()

	// mu is released so in-flight dispatches can observe closed and return
	for _, h := range handles {
		if err := h.Free(); err != nil {
			r.log.Warn("server shutdown", zap.String("addr", h.Addr()), zap.Error(err))
		}
	}

	r.mu.Lock()
	r.l.Close()
	r.mu.Unlock()
	r.log.Info("script runtime closed", zap.Int("servers", len(handles)))
	return nil
}

func (r *Runtime) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	r.log.Info("lua", zap.String("msg", strings.Join(parts, "\t")))
	return 0
}
