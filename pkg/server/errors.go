package server

import (
	"errors"

	"github.com/joeydtaylor/steeze-lua/pkg/action"
)

var (
	// ErrInvalidArgument is shared with the registry so callers can match
	// either layer's rejections with one errors.Is.
	ErrInvalidArgument = action.ErrInvalidArgument

	// ErrNotInitialized is returned by operations on a handle after shutdown.
	ErrNotInitialized = errors.New("not initialized")
)

// BindError reports a failure to bind the listening endpoint.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string { return "bind " + e.Addr + ": " + e.Err.Error() }
func (e *BindError) Unwrap() error { return e.Err }
