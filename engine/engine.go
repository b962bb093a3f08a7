package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/reqengine/engine/internal/tracking"
	"github.com/gaborage/reqengine/httpclient"
	"github.com/gaborage/reqengine/logger"
)

const (
	tracerName = "reqengine/engine"
	spanHandle = "engine.handle"

	// statusInvalid labels metrics for calls rejected as contract violations
	statusInvalid = "invalid"
)

// Engine dispatches descriptions to registered handlers through a Retrier.
// It is safe for concurrent use, including AddHandler during Handle calls.
type Engine struct {
	registry *Registry
	retrier  *Retrier
	logger   logger.Logger
	clock    quartz.Clock
	tracer   trace.Tracer
	policy   Policy
	timeout  time.Duration
}

// New creates an engine with the HTTP_GET and HTTP_POST handlers registered.
func New(opts ...Option) *Engine {
	o := &options{
		logger:   logger.Nop(),
		clock:    quartz.NewReal(),
		builtins: true,
		policy:   DefaultPolicy(),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}

	observer := append(observers{metricsObserver{}}, o.observers...)

	e := &Engine{
		registry: NewRegistry(),
		retrier:  NewRetrier(o.clock, o.logger, observer),
		logger:   o.logger,
		clock:    o.clock,
		tracer:   o.tracerProvider.Tracer(tracerName),
		policy:   o.policy,
		timeout:  o.timeout,
	}

	if o.builtins {
		client := o.httpClient
		if client == nil {
			// the per-attempt timeout is the only deadline applied to built-in handlers
			client = httpclient.NewBuilder(o.logger).WithTimeout(0).Build()
		}
		e.registry.Register(TypeHTTPGet, NewGetHandler(client))
		e.registry.Register(TypeHTTPPost, NewPostHandler(client))
	}

	for _, reg := range o.handlers {
		e.registry.Register(reg.t, reg.h)
	}

	return e
}

// AddHandler registers h for t, replacing any previous handler.
func (e *Engine) AddHandler(t Type, h Handler) {
	e.registry.Register(t, h)
}

// Handlers returns the registered request types in sorted order.
func (e *Engine) Handlers() []Type {
	return e.registry.Types()
}

// Handle looks up the handler for d's type and runs it under the retry policy.
//
// An unknown type yields StatusUnsupported without executing anything. A
// description without a type, an invalid policy and a description rejected by
// its handler are returned as errors. Only a missing or empty type is an
// error; any other string with no registered handler takes the unsupported
// path and is reported in the Result.
func (e *Engine) Handle(ctx context.Context, d Description, opts ...CallOption) (Result, error) {
	call := callOptions{policy: e.policy, timeout: e.timeout}
	for _, opt := range opts {
		opt(&call)
	}

	t, ok := d.Type()
	if !ok {
		return Result{}, fmt.Errorf("%w: %q must be a non-empty string", ErrMalformedDescription, FieldType)
	}
	if err := call.policy.Validate(); err != nil {
		return Result{Type: t}, err
	}

	requestID := httpclient.EnsureRequestID(ctx)
	ctx = httpclient.WithRequestID(ctx, requestID)

	ctx, span := e.tracer.Start(ctx, spanHandle,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("request.type", string(t)),
			attribute.String("request.id", requestID),
			attribute.Int("retry.max_attempts", call.policy.MaxAttempts),
		),
	)
	defer span.End()

	start := e.clock.Now()
	log := e.logger.WithFields(map[string]any{
		"request_id":   requestID,
		"request_type": string(t),
	})

	h, found := e.registry.Lookup(t)
	if !found {
		log.Warn().Msg("unsupported request type")
		result := Result{Type: t, Status: StatusUnsupported}
		e.finish(ctx, span, result, start)
		return result, nil
	}

	result, err := e.retrier.withLogger(log).Invoke(ctx, h, d, call.policy, call.timeout)
	if err != nil {
		log.Error().Err(err).Msg("request rejected")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		tracking.RecordRequest(ctx, string(t), statusInvalid, e.clock.Since(start))
		return result, err
	}

	e.finish(ctx, span, result, start)
	return result, nil
}

func (e *Engine) finish(ctx context.Context, span trace.Span, result Result, start time.Time) {
	tracking.RecordRequest(ctx, string(result.Type), string(result.Status), e.clock.Since(start))

	span.SetAttributes(
		attribute.String("request.status", string(result.Status)),
		attribute.Int("retry.attempts", result.Attempts),
	)
	if result.OK() {
		span.SetStatus(codes.Ok, "")
		return
	}
	if result.Err != nil {
		span.RecordError(result.Err)
	}
	span.SetStatus(codes.Error, string(result.Status))
}
