package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedDescription is returned when a description has no usable type.
	ErrMalformedDescription = errors.New("malformed request description")
	// ErrInvalidPolicy is returned for a retry policy that cannot run.
	ErrInvalidPolicy = errors.New("invalid retry policy")
	// ErrInvalidRequest wraps errors from handlers that rejected a description.
	ErrInvalidRequest = errors.New("invalid request")
)

// TransportError records a failed attempt: connectivity, timeout or a non-success status.
type TransportError struct {
	Type    Type
	Attempt int
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s attempt %d failed: %v", e.Type, e.Attempt, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
