// Package dispatch is the entry point the engine calls for every request on
// an action path. It resolves the handler, snapshots the request and runs the
// handler with a token that expires when the handler returns.
package dispatch

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-lua/pkg/action"
	"github.com/joeydtaylor/steeze-lua/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-lua/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-lua/pkg/request"
)

// DefaultMaxBodyBytes bounds request bodies when Config.MaxBodyBytes is 0.
const DefaultMaxBodyBytes int64 = 1 << 20

// ErrIncomplete is passed to the fault func when a handler returned without
// sending anything.
var ErrIncomplete = errors.New("handler returned without sending a response")

type State int32

const (
	Idle State = iota
	Dispatching
)

func (s State) String() string {
	if s == Dispatching {
		return "dispatching"
	}
	return "idle"
}

// FaultFunc is the engine's fault boundary. sent reports whether the status
// line already went out, in which case only logging is possible.
type FaultFunc func(w http.ResponseWriter, r *http.Request, sent bool, err error)

type Config struct {
	Registry     *action.Registry
	NotFound     http.Handler
	Fault        FaultFunc
	MaxBodyBytes int64
	Logger       *zap.Logger
}

// Trampoline runs at most one handler at a time.
type Trampoline struct {
	reg      *action.Registry
	notFound http.Handler
	fault    FaultFunc
	maxBody  int64
	log      *zap.Logger

	mu    sync.Mutex
	state atomic.Int32
}

func New(cfg Config) *Trampoline {
	t := &Trampoline{
		reg:      cfg.Registry,
		notFound: cfg.NotFound,
		fault:    cfg.Fault,
		maxBody:  cfg.MaxBodyBytes,
		log:      cfg.Logger,
	}
	if t.reg == nil {
		t.reg = action.NewRegistry()
	}
	if t.notFound == nil {
		t.notFound = http.NotFoundHandler()
	}
	if t.log == nil {
		t.log = zap.NewNop()
	}
	if t.fault == nil {
		t.fault = DefaultFault
	}
	if t.maxBody <= 0 {
		t.maxBody = DefaultMaxBodyBytes
	}
	return t
}

// State reports whether a handler is currently running.
func (t *Trampoline) State() State { return State(t.state.Load()) }

// Registry returns the table the trampoline dispatches from.
func (t *Trampoline) Registry() *action.Registry { return t.reg }

func (t *Trampoline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	h, err := t.reg.Lookup(path)
	if err != nil {
		metrics.ObserveDispatch("unmatched", metrics.OutcomeNotFound, 0)
		t.notFound.ServeHTTP(w, r)
		return
	}

	body, err := t.readBody(w, r)
	if err != nil {
		status := http.StatusBadRequest
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			status = http.StatusRequestEntityTooLarge
		}
		t.log.Warn("request body rejected",
			zap.String("path", path),
			zap.String("requestId", chimd.GetReqID(r.Context())),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(status), status)
		return
	}

	tok := request.NewToken(w, r, body)
	ctx := request.Build(tok)
	u := auth.UserFrom(r.Context())
	ctx.User, ctx.Role = u.Username, u.Role.Name

	start := time.Now()
	phase, herr := t.invoke(h, tok, ctx)
	elapsed := time.Since(start)

	log := t.log.With(
		zap.String("path", path),
		zap.String("requestId", chimd.GetReqID(r.Context())),
		zap.Duration("lat", elapsed),
	)

	switch {
	case herr != nil:
		var pe *request.ProtocolError
		if errors.As(herr, &pe) {
			metrics.ProtocolViolation(pe.Op)
		}
		log.Error("action handler failed", zap.Stringer("phase", phase), zap.Error(herr))
		sent := phase >= request.PhaseBody
		if !sent {
			discardStaged(w)
		}
		t.fault(w, r, sent, herr)
		metrics.ObserveDispatch(path, metrics.OutcomeFault, elapsed)

	case phase < request.PhaseBody:
		log.Warn("action handler sent no response", zap.Stringer("phase", phase))
		discardStaged(w)
		t.fault(w, r, false, ErrIncomplete)
		metrics.ObserveDispatch(path, metrics.OutcomeIncomplete, elapsed)

	case phase == request.PhaseBody:
		log.Warn("action handler returned without request_done", zap.Int64("written", tok.Written()))
		metrics.ObserveDispatch(path, metrics.OutcomeIncomplete, elapsed)

	default:
		if reason := tok.Reason(); reason != "" && reason != http.StatusText(tok.Status()) {
			log.Debug("reason phrase replaced by engine",
				zap.Int("status", tok.Status()),
				zap.String("reason", reason),
			)
		}
		metrics.ObserveDispatch(path, metrics.OutcomeOK, elapsed)
	}
}

// invoke holds the dispatch lock for the handler's duration and always
// expires the token, including when the handler panics.
func (t *Trampoline) invoke(h action.Handler, tok *request.Token, ctx *request.Context) (phase request.Phase, err error) {
	t.mu.Lock()
	t.state.Store(int32(Dispatching))
	defer func() {
		phase = tok.Expire()
		t.state.Store(int32(Idle))
		t.mu.Unlock()
	}()
	return request.PhaseUnsent, h.ServeAction(tok, ctx)
}

func (t *Trampoline) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(http.MaxBytesReader(w, r.Body, t.maxBody))
}

// discardStaged drops headers an unfinished response staged before the
// status line went out, so the fault reply carries none of them.
func discardStaged(w http.ResponseWriter) {
	clear(w.Header())
}

// DefaultFault answers 500 when nothing was sent yet. The trampoline has
// already logged err and discarded the staged headers.
func DefaultFault(w http.ResponseWriter, _ *http.Request, sent bool, _ error) {
	if sent {
		return
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
