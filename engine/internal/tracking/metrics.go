// Package tracking records OpenTelemetry metrics for the request engine.
package tracking

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/gaborage/reqengine/observability"
)

const (
	engineMeterName = "reqengine/engine"

	metricRequests        = "engine.requests"         // Counter, one per Handle call
	metricAttempts        = "engine.attempts"         // Counter, one per handler execution
	metricRetryWaits      = "engine.retry.waits"      // Counter, one per inter-attempt wait
	metricRequestDuration = "engine.request.duration" // Histogram in seconds

	attrRequestType = "request.type"
	attrStatus      = "request.status"
	attrOutcome     = "attempt.outcome"
)

// Attempt outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	engineMeter   metric.Meter
	meterOnce     sync.Once
	meterInitMu   sync.Mutex
	metricsInited bool

	requestCounter  metric.Int64Counter
	attemptCounter  metric.Int64Counter
	waitCounter     metric.Int64Counter
	requestDuration metric.Float64Histogram
)

func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize engine metric %s: %v\n", metricName, err)
	}
}

func initEngineMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if engineMeter != nil {
		return
	}

	engineMeter = otel.Meter(engineMeterName)

	var err error
	requestCounter, err = observability.CreateCounter(engineMeter, metricRequests,
		"Number of requests handled by the engine", metric.WithUnit("{request}"))
	logMetricError(metricRequests, err)

	attemptCounter, err = observability.CreateCounter(engineMeter, metricAttempts,
		"Number of handler executions", metric.WithUnit("{attempt}"))
	logMetricError(metricAttempts, err)

	waitCounter, err = observability.CreateCounter(engineMeter, metricRetryWaits,
		"Number of waits between attempts", metric.WithUnit("{wait}"))
	logMetricError(metricRetryWaits, err)

	requestDuration, err = observability.CreateHistogram(engineMeter, metricRequestDuration,
		"Duration of a Handle call including retries", metric.WithUnit("s"))
	logMetricError(metricRequestDuration, err)

	metricsInited = true
}

func ensureInitialized() {
	meterOnce.Do(initEngineMeter)
}

// RecordRequest records the terminal status and total duration of one Handle call.
func RecordRequest(ctx context.Context, requestType, status string, duration time.Duration) {
	ensureInitialized()

	attrs := metric.WithAttributes(
		attribute.String(attrRequestType, requestType),
		attribute.String(attrStatus, status),
	)
	if requestCounter != nil {
		requestCounter.Add(ctx, 1, attrs)
	}
	if requestDuration != nil {
		requestDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

// RecordAttempt records one handler execution with its outcome.
func RecordAttempt(ctx context.Context, requestType, outcome string) {
	ensureInitialized()

	if attemptCounter != nil {
		attemptCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrRequestType, requestType),
			attribute.String(attrOutcome, outcome),
		))
	}
}

// RecordRetryWait records one wait between attempts.
func RecordRetryWait(ctx context.Context, requestType string) {
	ensureInitialized()

	if waitCounter != nil {
		waitCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(attrRequestType, requestType)))
	}
}

// IsInitialized returns true if engine metrics have been initialized.
func IsInitialized() bool {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()
	return metricsInited
}

// ResetForTesting resets the metric state for testing purposes.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	engineMeter = nil
	requestCounter = nil
	attemptCounter = nil
	waitCounter = nil
	requestDuration = nil
	metricsInited = false
	meterOnce = sync.Once{}
}
