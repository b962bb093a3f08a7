package engine

import (
	"context"
	"time"

	"github.com/gaborage/reqengine/engine/internal/tracking"
)

// Observer receives retry loop events. Hooks run synchronously on the calling
// goroutine and must not block.
type Observer interface {
	// OnAttempt fires before each handler execution
	OnAttempt(ctx context.Context, t Type, attempt int)
	// OnAttemptFailed fires for each transport failure
	OnAttemptFailed(ctx context.Context, t Type, attempt int, err error)
	// OnRetryWait fires before waiting delay ahead of the next attempt
	OnRetryWait(ctx context.Context, t Type, attempt int, delay time.Duration)
	OnSuccess(ctx context.Context, t Type, attempts int)
	OnExhausted(ctx context.Context, t Type, attempts int, err error)
}

// NopObserver ignores every event. Embed it to implement only some hooks.
type NopObserver struct{}

func (NopObserver) OnAttempt(context.Context, Type, int) {}
func (NopObserver) OnAttemptFailed(context.Context, Type, int, error) {}
func (NopObserver) OnRetryWait(context.Context, Type, int, time.Duration) {}
func (NopObserver) OnSuccess(context.Context, Type, int) {}
func (NopObserver) OnExhausted(context.Context, Type, int, error) {}

// observers fans events out in order.
type observers []Observer

func (o observers) OnAttempt(ctx context.Context, t Type, attempt int) {
	for _, obs := range o {
		obs.OnAttempt(ctx, t, attempt)
	}
}

func (o observers) OnAttemptFailed(ctx context.Context, t Type, attempt int, err error) {
	for _, obs := range o {
		obs.OnAttemptFailed(ctx, t, attempt, err)
	}
}

func (o observers) OnRetryWait(ctx context.Context, t Type, attempt int, delay time.Duration) {
	for _, obs := range o {
		obs.OnRetryWait(ctx, t, attempt, delay)
	}
}

func (o observers) OnSuccess(ctx context.Context, t Type, attempts int) {
	for _, obs := range o {
		obs.OnSuccess(ctx, t, attempts)
	}
}

func (o observers) OnExhausted(ctx context.Context, t Type, attempts int, err error) {
	for _, obs := range o {
		obs.OnExhausted(ctx, t, attempts, err)
	}
}

// metricsObserver turns retry events into OpenTelemetry metrics.
type metricsObserver struct {
	NopObserver
}

func (metricsObserver) OnAttemptFailed(ctx context.Context, t Type, _ int, _ error) {
	tracking.RecordAttempt(ctx, string(t), tracking.OutcomeFailure)
}

func (metricsObserver) OnRetryWait(ctx context.Context, t Type, _ int, _ time.Duration) {
	tracking.RecordRetryWait(ctx, string(t))
}

func (metricsObserver) OnSuccess(ctx context.Context, t Type, _ int) {
	tracking.RecordAttempt(ctx, string(t), tracking.OutcomeSuccess)
}
