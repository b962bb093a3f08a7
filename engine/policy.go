package engine

import (
	"fmt"
	"time"
)

const (
	// DefaultMaxAttempts is the number of executions tried before giving up
	DefaultMaxAttempts = 3
	// DefaultDelay is the fixed wait between attempts
	DefaultDelay = time.Second
	// DefaultTimeout bounds each attempt unless the caller overrides it
	DefaultTimeout = 30 * time.Second
)

// Policy is the fixed-delay retry policy for one call.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPolicy returns three attempts one second apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay}
}

// Validate reports ErrInvalidPolicy when the loop could not execute at least once.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidPolicy, p.MaxAttempts)
	}
	if p.Delay < 0 {
		return fmt.Errorf("%w: delay must not be negative, got %v", ErrInvalidPolicy, p.Delay)
	}
	return nil
}
