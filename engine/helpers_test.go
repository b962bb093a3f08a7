package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var errConnRefused = errors.New("connection refused")

// scriptedHandler fails the first failures calls and succeeds afterwards
type scriptedHandler struct {
	failures int
	payload  any
	calls    atomic.Int32
}

func (h *scriptedHandler) Execute(context.Context, Description, time.Duration) Outcome {
	n := int(h.calls.Add(1))
	if n <= h.failures {
		return TransportFailed(errConnRefused)
	}
	return Succeeded(h.payload)
}

func (h *scriptedHandler) Calls() int {
	return int(h.calls.Load())
}

func alwaysFailing() *scriptedHandler {
	return &scriptedHandler{failures: 1 << 30}
}

type recordingObserver struct {
	NopObserver

	mu        sync.Mutex
	attempts  int
	failures  int
	waits     []time.Duration
	successes int
	exhausted int
}

func (o *recordingObserver) OnAttempt(context.Context, Type, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts++
}

func (o *recordingObserver) OnAttemptFailed(context.Context, Type, int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures++
}

func (o *recordingObserver) OnRetryWait(_ context.Context, _ Type, _ int, delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.waits = append(o.waits, delay)
}

func (o *recordingObserver) OnSuccess(context.Context, Type, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.successes++
}

func (o *recordingObserver) OnExhausted(context.Context, Type, int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.exhausted++
}

func (o *recordingObserver) Waits() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.waits)
}
