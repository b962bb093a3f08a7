package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"

	"github.com/gaborage/reqengine/logger"
)

// Retrier runs a handler until it succeeds or the policy's attempts run out,
// waiting a fixed delay between attempts.
type Retrier struct {
	clock    quartz.Clock
	logger   logger.Logger
	observer Observer
}

// NewRetrier creates a retrier. Nil arguments select the real clock, a no-op
// logger and a no-op observer.
func NewRetrier(clock quartz.Clock, log logger.Logger, observer Observer) *Retrier {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if log == nil {
		log = logger.Nop()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Retrier{clock: clock, logger: log, observer: observer}
}

func (r *Retrier) withLogger(log logger.Logger) *Retrier {
	return &Retrier{clock: r.clock, logger: log, observer: r.observer}
}

// Invoke executes h with d until it succeeds or policy.MaxAttempts executions
// failed with a transport error. Exhaustion and cancellation are reported
// through the Result status; the error return is reserved for an invalid
// policy and for descriptions the handler rejected.
func (r *Retrier) Invoke(ctx context.Context, h Handler, d Description, policy Policy, timeout time.Duration) (Result, error) {
	if err := policy.Validate(); err != nil {
		return Result{}, err
	}

	t, _ := d.Type()
	result := Result{Type: t}

	for attempt := 1; ; attempt++ {
		result.Attempts = attempt
		r.observer.OnAttempt(ctx, t, attempt)

		out := h.Execute(ctx, d, timeout)
		switch out.Kind {
		case OutcomeSuccess:
			result.Status = StatusSucceeded
			result.Payload = out.Payload
			result.Err = nil
			r.observer.OnSuccess(ctx, t, attempt)
			return result, nil

		case OutcomeTransportFailure:
			failure := &TransportError{Type: t, Attempt: attempt, Err: out.Err}
			result.Err = failure
			r.logger.Warn().
				Err(out.Err).
				Str("request_type", string(t)).
				Int("attempt", attempt).
				Int("max_attempts", policy.MaxAttempts).
				Msg("request failed")
			r.observer.OnAttemptFailed(ctx, t, attempt, failure)

			// A failure caused by the caller going away is neither retried nor exhaustion.
			if err := ctx.Err(); err != nil {
				return r.canceled(result, attempt, err, failure), nil
			}

			if attempt >= policy.MaxAttempts {
				r.logger.Error().
					Err(out.Err).
					Str("request_type", string(t)).
					Int("attempts", attempt).
					Msg("retries exhausted")
				r.observer.OnExhausted(ctx, t, attempt, failure)
				result.Status = StatusExhausted
				return result, nil
			}

			r.logger.Info().
				Str("request_type", string(t)).
				Int("next_attempt", attempt+1).
				Int("max_attempts", policy.MaxAttempts).
				Dur("delay", policy.Delay).
				Msg("retrying")
			r.observer.OnRetryWait(ctx, t, attempt, policy.Delay)

			if err := r.wait(ctx, policy.Delay); err != nil {
				return r.canceled(result, attempt, err, failure), nil
			}

		case OutcomeInvalidRequest:
			return result, fmt.Errorf("%w: %w", ErrInvalidRequest, out.Err)

		default:
			return result, fmt.Errorf("%w: handler returned unknown outcome %s", ErrInvalidRequest, out.Kind)
		}
	}
}

func (r *Retrier) canceled(result Result, attempt int, cause error, failure *TransportError) Result {
	r.logger.Warn().
		Err(cause).
		Str("request_type", string(result.Type)).
		Int("attempts", attempt).
		Msg("retry canceled")
	result.Status = StatusCanceled
	result.Err = errors.Join(cause, failure)
	return result
}

// wait blocks for delay or until ctx is done. A zero delay only checks ctx.
func (r *Retrier) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := r.clock.NewTimer(delay, "retry", "wait")
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
