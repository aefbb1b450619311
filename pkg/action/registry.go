// Package action maps request paths to handlers.
package action

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/joeydtaylor/steeze-lua/pkg/request"
)

var (
	ErrInvalidArgument = errors.New("invalid arg list")
	ErrNotFound        = errors.New("action not found")
)

// Handler processes one dispatched request. tok is valid only until
// ServeAction returns; ctx may be kept.
type Handler interface {
	ServeAction(tok *request.Token, ctx *request.Context) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(tok *request.Token, ctx *request.Context) error

func (f HandlerFunc) ServeAction(tok *request.Token, ctx *request.Context) error {
	return f(tok, ctx)
}

// Registry is a path -> handler table. The last Register for a path wins.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Handler)}
}

// Register inserts or overwrites the handler for path.
func (r *Registry) Register(path string, h Handler) error {
	if path == "" {
		return fmt.Errorf("empty path: %w", ErrInvalidArgument)
	}
	if h == nil {
		return fmt.Errorf("nil handler for %q: %w", path, ErrInvalidArgument)
	}
	if f, ok := h.(HandlerFunc); ok && f == nil {
		return fmt.Errorf("nil handler for %q: %w", path, ErrInvalidArgument)
	}
	r.mu.Lock()
	r.actions[path] = h
	r.mu.Unlock()
	return nil
}

// Lookup returns the handler registered for path.
func (r *Registry) Lookup(path string) (Handler, error) {
	r.mu.RLock()
	h, ok := r.actions[path]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", path, ErrNotFound)
	}
	return h, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// Paths returns the registered paths in sorted order.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.actions))
	for p := range r.actions {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}
