// Package server owns one listening HTTP engine and the action paths wired
// into it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	chimd "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-lua/pkg/action"
	"github.com/joeydtaylor/steeze-lua/pkg/dispatch"
	"github.com/joeydtaylor/steeze-lua/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-lua/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-lua/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-lua/pkg/middleware/ratelimit"
	"github.com/joeydtaylor/steeze-lua/pkg/transport/httpx"
)

// Version identifies the engine build. Overridable with
// -ldflags "-X github.com/joeydtaylor/steeze-lua/pkg/server.Version=...".
var Version = "0.1.0"

type mux struct{ h http.Handler }

// Handle is one bound server. All methods are safe for concurrent use.
type Handle struct {
	addr  string
	log   *zap.Logger
	opts  options
	reg   *action.Registry
	tramp *dispatch.Trampoline
	entry http.Handler

	ln     net.Listener
	srv    *http.Server
	served chan struct{}
	routes atomic.Pointer[mux]

	mu    sync.Mutex
	alive bool
}

// Create binds address:port and starts serving. The address is passed to the
// OS unchanged; an empty address listens on all interfaces.
func Create(address string, port int, opts ...Option) (*Handle, error) {
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("port %d: %w", port, ErrInvalidArgument)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	addr := net.JoinHostPort(address, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}

	h := &Handle{
		addr:   ln.Addr().String(),
		log:    o.log.With(zap.String("addr", ln.Addr().String())),
		opts:   o,
		reg:    o.reg,
		ln:     ln,
		served: make(chan struct{}),
		alive:  true,
	}
	if h.reg == nil {
		h.reg = action.NewRegistry()
	}
	h.tramp = dispatch.New(dispatch.Config{
		Registry:     h.reg,
		Fault:        o.fault,
		MaxBodyBytes: o.maxBody,
		Logger:       h.log,
	})
	h.entry = guard(h.tramp, o)

	h.mu.Lock()
	h.rebuild()
	h.mu.Unlock()

	h.srv = &http.Server{
		Handler:      http.HandlerFunc(h.serveHTTP),
		ReadTimeout:  o.readTimeout,
		WriteTimeout: o.writeTimeout,
		IdleTimeout:  o.idleTimeout,
		ErrorLog:     zap.NewStdLog(h.log),
	}
	go h.serve()

	h.log.Info("server listening", zap.String("version", Version))
	return h, nil
}

// guard puts the optional rate limit and bearer check in front of dispatch.
func guard(next http.Handler, o options) http.Handler {
	var mws chi.Middlewares
	if rl := ratelimit.Middleware(o.rateLimit); rl != nil {
		mws = append(mws, rl)
	}
	if a := auth.New(o.auth); a != nil {
		mws = append(mws, a.Middleware())
	}
	if len(mws) == 0 {
		return next
	}
	return mws.Handler(next)
}

func (h *Handle) serve() {
	defer close(h.served)
	err := h.srv.Serve(h.ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) && h.Alive() {
		h.log.Error("server failed", zap.Error(err))
	}
}

func (h *Handle) serveHTTP(w http.ResponseWriter, r *http.Request) {
	h.routes.Load().h.ServeHTTP(w, r)
}

// rebuild swaps in a fresh router carrying every registered path. Routers are
// never mutated while serving. Caller holds h.mu.
func (h *Handle) rebuild() {
	r := httpx.NewChi()
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))
	if h.opts.access != nil {
		r.Use(logger.NewMiddleware(h.opts.access, h.opts.bodies...).Middleware())
	}
	r.Use(metrics.Collect())

	if p := h.opts.metricsPath; p != "" {
		metrics.Skip(p)
		r.Method(http.MethodGet, p, metrics.Handler(h.log))
	}
	for _, p := range h.reg.Paths() {
		if !literal(p) {
			// chi would treat it as a pattern; exact lookup via NotFound
			continue
		}
		if err := route(r, p, h.entry); err != nil {
			// still reachable by exact path through the fallback below
			h.log.Warn("action path not routable", zap.String("path", p), zap.Error(err))
		}
	}
	r.NotFound(h.entry)

	h.routes.Store(&mux{h: r.Mux()})
}

// literal reports whether chi routes path by exact match only.
func literal(path string) bool { return !strings.ContainsAny(path, "{}*") }

// route recovers from paths chi refuses to parse.
func route(r httpx.Router, path string, h http.Handler) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	r.Handle(path, h)
	return nil
}

// AddAction registers h for path and routes the path to the trampoline.
func (h *Handle) AddAction(path string, ah action.Handler) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.alive {
		return ErrNotInitialized
	}
	if err := h.reg.Register(path, ah); err != nil {
		return err
	}
	h.rebuild()
	h.log.Info("action added", zap.String("path", path))
	return nil
}

// markDown flips the liveness flag; only the first caller gets true.
func (h *Handle) markDown() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.alive {
		return false
	}
	h.alive = false
	return true
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done, then closes the rest. Calls after the first are no-ops.
func (h *Handle) Shutdown(ctx context.Context) error {
	if !h.markDown() {
		return nil
	}
	return h.drain(ctx)
}

// Free is Shutdown bounded by ShutdownTimeout.
func (h *Handle) Free() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return h.Shutdown(ctx)
}

// Release closes the listener immediately and drains in the background, so
// it may be called from inside one of this handle's own handlers.
func (h *Handle) Release() {
	if !h.markDown() {
		return
	}
	_ = h.ln.Close()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		_ = h.drain(ctx)
	}()
}

func (h *Handle) drain(ctx context.Context) error {
	err := h.srv.Shutdown(ctx)
	if err != nil && ctx.Err() != nil {
		_ = h.srv.Close()
	}
	<-h.served
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	h.log.Info("server stopped")
	return err
}

// Addr is the bound host:port.
func (h *Handle) Addr() string { return h.addr }

func (h *Handle) Alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alive
}

func (h *Handle) Registry() *action.Registry { return h.reg }

// Trampoline exposes the dispatch state for diagnostics.
func (h *Handle) Trampoline() *dispatch.Trampoline { return h.tramp }
