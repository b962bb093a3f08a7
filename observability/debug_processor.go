package observability

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/gaborage/reqengine/logger"
)

// debugSpanProcessor logs span lifecycle events at debug level before
// delegating to the wrapped processor.
type debugSpanProcessor struct {
	wrapped sdktrace.SpanProcessor
	logger  logger.Logger
}

func newDebugSpanProcessor(wrapped sdktrace.SpanProcessor, log logger.Logger) sdktrace.SpanProcessor {
	return &debugSpanProcessor{wrapped: wrapped, logger: log}
}

func (d *debugSpanProcessor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	d.logger.Debug().
		Str("span", s.Name()).
		Str("trace_id", s.SpanContext().TraceID().String()).
		Msg("Span started")
	d.wrapped.OnStart(parent, s)
}

func (d *debugSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	d.logger.Debug().
		Str("span", s.Name()).
		Str("trace_id", s.SpanContext().TraceID().String()).
		Dur("duration", s.EndTime().Sub(s.StartTime())).
		Msg("Span ended")
	d.wrapped.OnEnd(s)
}

func (d *debugSpanProcessor) Shutdown(ctx context.Context) error {
	return d.wrapped.Shutdown(ctx)
}

func (d *debugSpanProcessor) ForceFlush(ctx context.Context) error {
	return d.wrapped.ForceFlush(ctx)
}
