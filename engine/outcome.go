package engine

import (
	"context"
	"time"
)

// OutcomeKind classifies the result of one handler execution.
type OutcomeKind int

const (
	// OutcomeSuccess carries the payload and ends the retry loop.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeTransportFailure is retried until attempts run out.
	OutcomeTransportFailure
	// OutcomeInvalidRequest reports a malformed description and is never retried.
	OutcomeInvalidRequest
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTransportFailure:
		return "transport_failure"
	case OutcomeInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// Outcome is what a handler returns for a single attempt.
type Outcome struct {
	Kind    OutcomeKind
	Payload any
	Err     error
}

// Succeeded returns a successful outcome.
func Succeeded(payload any) Outcome {
	return Outcome{Kind: OutcomeSuccess, Payload: payload}
}

// TransportFailed returns a retryable failure.
func TransportFailed(err error) Outcome {
	return Outcome{Kind: OutcomeTransportFailure, Err: err}
}

// Rejected returns a non-retryable failure for a description the handler cannot use.
func Rejected(err error) Outcome {
	return Outcome{Kind: OutcomeInvalidRequest, Err: err}
}

// Handler executes one kind of request. A single instance serves every call of
// its type, possibly concurrently, so implementations keep no per-call state.
//
// timeout bounds the attempt; zero means no limit beyond ctx.
type Handler interface {
	Execute(ctx context.Context, d Description, timeout time.Duration) Outcome
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, d Description, timeout time.Duration) Outcome

// Execute calls f(ctx, d, timeout).
func (f HandlerFunc) Execute(ctx context.Context, d Description, timeout time.Duration) Outcome {
	return f(ctx, d, timeout)
}
