package request

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocolViolation matches every emitter call made out of order.
	ErrProtocolViolation = errors.New("response protocol violation")

	// ErrTokenExpired is returned when a token is used after its dispatch returned.
	ErrTokenExpired = fmt.Errorf("%w: request token expired", ErrProtocolViolation)

	// ErrInvalidArgument is returned for malformed emitter arguments.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ProtocolError describes an emitter call that does not fit the response phase.
type ProtocolError struct {
	Op    string
	Phase Phase
	Msg   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s (phase %s)", e.Op, e.Msg, e.Phase)
}

// Is lets errors.Is(err, ErrProtocolViolation) match any ProtocolError.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocolViolation
}

func violation(op string, p Phase, msg string) error {
	return &ProtocolError{Op: op, Phase: p, Msg: msg}
}
