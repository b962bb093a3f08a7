package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/gaborage/reqengine/engine/internal/tracking"
	"github.com/gaborage/reqengine/httpclient"
	obtest "github.com/gaborage/reqengine/observability/testing"
)

func TestNewRegistersBuiltinHandlers(t *testing.T) {
	e := New()
	assert.Equal(t, []Type{TypeHTTPGet, TypeHTTPPost}, e.Handlers())

	h, ok := e.registry.Lookup(TypeHTTPGet)
	require.True(t, ok)
	assert.Equal(t, VerbGet, h.(*HTTPHandler).Verb())

	h, ok = e.registry.Lookup(TypeHTTPPost)
	require.True(t, ok)
	assert.Equal(t, VerbPost, h.(*HTTPHandler).Verb())

	assert.Empty(t, New(WithoutBuiltinHandlers()).Handlers())
}

func TestWithHandlerOverridesBuiltin(t *testing.T) {
	custom := &scriptedHandler{payload: "custom"}
	e := New(WithHandler(TypeHTTPGet, custom))

	res, err := e.Handle(context.Background(), Description{FieldType: "HTTP_GET"})
	require.NoError(t, err)
	assert.Equal(t, "custom", res.Payload)
	assert.Equal(t, 1, custom.Calls())
}

func TestHandleScenarios(t *testing.T) {
	t.Run("fails twice then succeeds", func(t *testing.T) {
		h := &scriptedHandler{failures: 2, payload: "payload"}
		obs := &recordingObserver{}
		e := New(WithoutBuiltinHandlers(), WithHandler("FLAKY", h), WithObserver(obs))

		res, err := e.Handle(context.Background(), Description{FieldType: "FLAKY"},
			WithMaxAttempts(3), WithDelay(0))
		require.NoError(t, err)
		assert.True(t, res.OK())
		assert.Equal(t, "payload", res.Payload)
		assert.Equal(t, 3, h.Calls())
		assert.Equal(t, 3, res.Attempts)
		assert.Equal(t, 2, obs.Waits())
	})

	t.Run("unknown type on empty registry", func(t *testing.T) {
		obs := &recordingObserver{}
		e := New(WithoutBuiltinHandlers(), WithObserver(obs))

		res, err := e.Handle(context.Background(), Description{FieldType: "UNKNOWN"})
		require.NoError(t, err)
		assert.False(t, res.OK())
		assert.Equal(t, StatusUnsupported, res.Status)
		assert.Zero(t, res.Attempts)
		assert.Zero(t, obs.attempts)
		assert.Zero(t, obs.Waits())
	})

	t.Run("single attempt always fails", func(t *testing.T) {
		h := alwaysFailing()
		obs := &recordingObserver{}
		e := New(WithoutBuiltinHandlers(), WithHandler("DOWN", h), WithObserver(obs))

		res, err := e.Handle(context.Background(), Description{FieldType: "DOWN"}, WithMaxAttempts(1))
		require.NoError(t, err)
		assert.Equal(t, StatusExhausted, res.Status)
		assert.Nil(t, res.Payload)
		assert.Equal(t, 1, h.Calls())
		assert.Zero(t, obs.Waits())
	})

	t.Run("always fails with default attempts", func(t *testing.T) {
		h := alwaysFailing()
		obs := &recordingObserver{}
		e := New(WithoutBuiltinHandlers(), WithHandler("DOWN", h), WithObserver(obs),
			WithDefaultPolicy(Policy{MaxAttempts: DefaultMaxAttempts}))

		res, err := e.Handle(context.Background(), Description{FieldType: "DOWN"})
		require.NoError(t, err)
		assert.Equal(t, StatusExhausted, res.Status)
		assert.Equal(t, DefaultMaxAttempts, h.Calls())
		assert.Equal(t, DefaultMaxAttempts-1, obs.Waits())
	})
}

func TestHandleLastWriteWins(t *testing.T) {
	e := New(WithoutBuiltinHandlers())
	first := &scriptedHandler{payload: "first"}
	second := &scriptedHandler{payload: "second"}

	e.AddHandler("T", first)
	e.AddHandler("T", second)

	res, err := e.Handle(context.Background(), Description{FieldType: "T"})
	require.NoError(t, err)
	assert.Equal(t, "second", res.Payload)
	assert.Zero(t, first.Calls())
	assert.Equal(t, 1, second.Calls())
}

func TestHandleIsIdempotentForDeterministicHandler(t *testing.T) {
	e := New(WithoutBuiltinHandlers(), WithHandler("ECHO", HandlerFunc(
		func(_ context.Context, d Description, _ time.Duration) Outcome {
			return Succeeded(fmt.Sprint(d["value"]))
		})))

	d := Description{FieldType: "ECHO", "value": 42}
	first, err := e.Handle(context.Background(), d)
	require.NoError(t, err)
	second, err := e.Handle(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, first.Payload, second.Payload)
	assert.Equal(t, first.Status, second.Status)
}

func TestHandleContractViolations(t *testing.T) {
	e := New(WithoutBuiltinHandlers(), WithHandler("T", &scriptedHandler{payload: "x"}))

	_, err := e.Handle(context.Background(), Description{"url": "http://example.com"})
	assert.ErrorIs(t, err, ErrMalformedDescription)

	_, err = e.Handle(context.Background(), Description{FieldType: 7})
	assert.ErrorIs(t, err, ErrMalformedDescription)

	_, err = e.Handle(context.Background(), Description{FieldType: "T"}, WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	_, err = e.Handle(context.Background(), Description{FieldType: "T"}, WithDelay(-time.Second))
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	e.AddHandler("REJECT", HandlerFunc(func(context.Context, Description, time.Duration) Outcome {
		return Rejected(fmt.Errorf("no url"))
	}))
	_, err = e.Handle(context.Background(), Description{FieldType: "REJECT"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestHandleTimeoutOptions(t *testing.T) {
	var got time.Duration
	h := HandlerFunc(func(_ context.Context, _ Description, timeout time.Duration) Outcome {
		got = timeout
		return Succeeded(nil)
	})

	e := New(WithoutBuiltinHandlers(), WithHandler("T", h))
	_, err := e.Handle(context.Background(), Description{FieldType: "T"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, got)

	_, err = e.Handle(context.Background(), Description{FieldType: "T"}, WithTimeout(0))
	require.NoError(t, err)
	assert.Zero(t, got)

	e = New(WithoutBuiltinHandlers(), WithHandler("T", h), WithDefaultTimeout(time.Second))
	_, err = e.Handle(context.Background(), Description{FieldType: "T"}, WithPolicy(Policy{MaxAttempts: 1}))
	require.NoError(t, err)
	assert.Equal(t, time.Second, got)
}

func TestHandlePropagatesRequestID(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	attempts := 0
	h := HandlerFunc(func(ctx context.Context, _ Description, _ time.Duration) Outcome {
		mu.Lock()
		defer mu.Unlock()
		id, _ := httpclient.RequestIDFromContext(ctx)
		seen = append(seen, id)
		attempts++
		if attempts < 3 {
			return TransportFailed(errConnRefused)
		}
		return Succeeded("ok")
	})
	e := New(WithoutBuiltinHandlers(), WithHandler("T", h))

	_, err := e.Handle(context.Background(), Description{FieldType: "T"}, WithDelay(0))
	require.NoError(t, err)
	require.Len(t, seen, 3)
	assert.NotEmpty(t, seen[0])
	assert.Equal(t, seen[0], seen[1])
	assert.Equal(t, seen[0], seen[2])

	seen = nil
	attempts = 2
	ctx := httpclient.WithRequestID(context.Background(), "caller-id")
	_, err = e.Handle(ctx, Description{FieldType: "T"})
	require.NoError(t, err)
	assert.Equal(t, []string{"caller-id"}, seen)
}

func TestHandleConcurrentWithAddHandler(t *testing.T) {
	e := New(WithoutBuiltinHandlers())
	e.AddHandler("T", &scriptedHandler{payload: "ok"})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			res, err := e.Handle(context.Background(), Description{FieldType: "T"}, WithDelay(0))
			assert.NoError(t, err)
			assert.True(t, res.OK())
		}()
		go func() {
			defer wg.Done()
			e.AddHandler("T", &scriptedHandler{payload: "ok"})
			e.AddHandler(Type(fmt.Sprintf("EXTRA_%d", i)), &scriptedHandler{})
		}()
	}
	wg.Wait()

	assert.Len(t, e.Handlers(), 51)
}

func TestHandleCanceledContext(t *testing.T) {
	h := alwaysFailing()
	e := New(WithoutBuiltinHandlers(), WithHandler("T", h))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Handle(ctx, Description{FieldType: "T"}, WithMaxAttempts(5))
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, res.Status)
	assert.Equal(t, 1, h.Calls())
}

func TestHandleRecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	e := New(WithoutBuiltinHandlers(), WithTracerProvider(tp),
		WithHandler("OK", &scriptedHandler{payload: "ok"}),
		WithHandler("DOWN", alwaysFailing()))

	_, err := e.Handle(context.Background(), Description{FieldType: "OK"})
	require.NoError(t, err)
	_, err = e.Handle(context.Background(), Description{FieldType: "DOWN"}, WithDelay(0))
	require.NoError(t, err)
	_, err = e.Handle(context.Background(), Description{FieldType: "MISSING"})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	for _, span := range spans {
		assert.Equal(t, spanHandle, span.Name)
	}

	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, string(StatusExhausted), spans[1].Status.Description)
	assert.NotEmpty(t, spans[1].Events, "exhausted span records the last error")
	assert.Equal(t, codes.Error, spans[2].Status.Code)
	assert.Equal(t, string(StatusUnsupported), spans[2].Status.Description)
}

func TestHandleRecordsMetrics(t *testing.T) {
	tracking.ResetForTesting()
	mp := obtest.NewTestMeterProvider()
	otel.SetMeterProvider(mp)
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
		tracking.ResetForTesting()
	})

	e := New(WithoutBuiltinHandlers(), WithHandler("FLAKY", &scriptedHandler{failures: 1, payload: "ok"}))
	_, err := e.Handle(context.Background(), Description{FieldType: "FLAKY"}, WithDelay(0))
	require.NoError(t, err)

	rm := mp.Collect(t)
	flaky := attribute.String("request.type", "FLAKY")

	assert.Equal(t, int64(1), obtest.SumInt64(t, rm, "engine.requests", flaky, attribute.String("request.status", string(StatusSucceeded))))
	assert.Equal(t, int64(1), obtest.SumInt64(t, rm, "engine.attempts", flaky, attribute.String("attempt.outcome", "failure")))
	assert.Equal(t, int64(1), obtest.SumInt64(t, rm, "engine.attempts", flaky, attribute.String("attempt.outcome", "success")))
	assert.Equal(t, int64(1), obtest.SumInt64(t, rm, "engine.retry.waits", flaky))
}
