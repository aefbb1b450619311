package script

import "errors"

var (
	// ErrClosed is returned when operating on a closed runtime.
	ErrClosed = errors.New("script runtime is closed")

	// ErrHandlerTimeout is wrapped when a handler exceeds the configured limit.
	ErrHandlerTimeout = errors.New("lua handler timeout")
)

// Messages raised to scripts. They match the historical uhttpd binding.
const (
	msgInvalidArgs    = "invalid arg list"
	msgNotInitialized = "Not initialized"
	msgBindFailed     = "Bind failed"
)
