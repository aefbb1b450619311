// Package request holds the dispatch-scoped request token, the response
// emitter operating on it and the immutable context handed to handlers.
package request

import (
	"net/http"
	"sync"
)

// Phase is the response progression of one token.
type Phase int

const (
	PhaseUnsent Phase = iota
	PhaseHeaders
	PhaseBody
	PhaseDone
	PhaseExpired
)

func (p Phase) String() string {
	switch p {
	case PhaseUnsent:
		return "unsent"
	case PhaseHeaders:
		return "headers"
	case PhaseBody:
		return "body"
	case PhaseDone:
		return "done"
	case PhaseExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Framing is the body transmission mode chosen by SendHeader.
type Framing int

const (
	FramingNone Framing = iota
	FramingFixed
	FramingChunked
)

// Token is a non-owning reference to one in-flight request. It is only
// valid while the dispatch that created it is running; afterwards every
// emitter call fails with ErrTokenExpired.
type Token struct {
	r    *http.Request
	w    http.ResponseWriter
	body []byte

	mu      sync.Mutex
	phase   Phase
	framing Framing
	status  int
	reason  string
	length  int64
	written int64
}

// NewToken binds a token to a request whose body has already been read.
func NewToken(w http.ResponseWriter, r *http.Request, body []byte) *Token {
	return &Token{r: r, w: w, body: body}
}

func (t *Token) PeerAddr() string { return t.r.RemoteAddr }

// URL returns the raw path and query as received.
func (t *Token) URL() string {
	if t.r.RequestURI != "" {
		return t.r.RequestURI
	}
	return t.r.URL.RequestURI()
}

func (t *Token) Query() string             { return t.r.URL.RawQuery }
func (t *Token) Body() []byte              { return t.body }
func (t *Token) Method() string            { return t.r.Method }
func (t *Token) Path() string              { return t.r.URL.Path }
func (t *Token) Header(name string) string { return t.r.Header.Get(name) }
func (t *Token) ContentType() string       { return t.r.Header.Get("Content-Type") }

// Request exposes the engine request for middleware-aware handlers.
func (t *Token) Request() *http.Request { return t.r }

// Phase reports the current response phase.
func (t *Token) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Status returns the code passed to SendHeader, or 0.
func (t *Token) Status() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Reason returns the reason phrase passed to SendHeader.
func (t *Token) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Written is the number of body bytes accepted so far.
func (t *Token) Written() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written
}

// Expire invalidates the token. Called by the trampoline once the handler
// has returned; it returns the phase the token was in.
func (t *Token) Expire() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.phase
	t.phase = PhaseExpired
	return prev
}
