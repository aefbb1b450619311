package request

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// The emitter methods below must be called in the order
//
//	SendHeader -> AppendHeader* -> HeaderEnd -> (Send* | ChunkSend*) -> RequestDone
//
// Any other order is rejected with a *ProtocolError and nothing is written.

// SendHeader starts the response. A length >= 0 selects fixed framing with
// that Content-Length; a negative length selects chunked framing.
func (t *Token) SendHeader(code int, reason string, length int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.expect("send_header", PhaseUnsent); err != nil {
		return err
	}
	if code < 100 || code > 999 {
		return fmt.Errorf("send_header: status %d: %w", code, ErrInvalidArgument)
	}

	h := t.w.Header()
	if length >= 0 {
		t.framing = FramingFixed
		h.Set("Content-Length", strconv.FormatInt(length, 10))
	} else {
		t.framing = FramingChunked
		h.Del("Content-Length")
	}
	t.status = code
	t.reason = reason
	t.length = length
	t.phase = PhaseHeaders
	return nil
}

// AppendHeader adds one header line. Repeated names produce repeated lines.
func (t *Token) AppendHeader(name, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.expect("append_header", PhaseHeaders); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("append_header: empty name: %w", ErrInvalidArgument)
	}
	switch http.CanonicalHeaderKey(name) {
	case "Content-Length", "Transfer-Encoding":
		return fmt.Errorf("append_header: %s is set by send_header: %w", name, ErrInvalidArgument)
	}
	t.w.Header().Add(name, value)
	return nil
}

// HeaderEnd writes the status line and headers.
func (t *Token) HeaderEnd() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.expect("header_end", PhaseHeaders); err != nil {
		return err
	}
	t.w.WriteHeader(t.status)
	t.phase = PhaseBody
	return nil
}

// Send writes body bytes under fixed framing. The cumulative size is not
// checked against the declared length; the engine rejects overruns.
func (t *Token) Send(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.expect("send", PhaseBody); err != nil {
		return err
	}
	if t.framing != FramingFixed {
		return violation("send", t.phase, "response uses chunked framing")
	}
	n, err := t.w.Write(p)
	t.written += int64(n)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// ChunkSend writes one chunk under chunked framing and flushes it. An empty
// chunk is ignored; the terminating chunk is written when the request ends.
func (t *Token) ChunkSend(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.expect("chunk_send", PhaseBody); err != nil {
		return err
	}
	if t.framing != FramingChunked {
		return violation("chunk_send", t.phase, "response uses fixed framing")
	}
	if len(p) == 0 {
		return nil
	}
	n, err := t.w.Write(p)
	t.written += int64(n)
	if err != nil {
		return fmt.Errorf("chunk_send: %w", err)
	}
	if f, ok := t.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// RequestDone completes the response. It must be called exactly once.
func (t *Token) RequestDone() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.expect("request_done", PhaseBody); err != nil {
		return err
	}
	if f, ok := t.w.(http.Flusher); ok {
		f.Flush()
	}
	t.phase = PhaseDone
	return nil
}

func (t *Token) expect(op string, want Phase) error {
	switch t.phase {
	case want:
		return nil
	case PhaseExpired:
		return fmt.Errorf("%s: %w", op, ErrTokenExpired)
	case PhaseDone:
		return violation(op, t.phase, "request already done")
	}
	return violation(op, t.phase, "expected phase "+want.String())
}
