package server

import "time"

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 15 * time.Second

	// DefaultIdleTimeout is the keep-alive idle limit.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultSlowRequestThreshold marks slower requests with result_code WARN.
	DefaultSlowRequestThreshold = 5 * time.Second

	// StatusClientClosedRequest is the non-standard status used when the
	// caller went away before the engine finished.
	StatusClientClosedRequest = 499

	// HeaderXResponseTime carries the handler latency.
	HeaderXResponseTime = "X-Response-Time"

	bodyLimit = "1M"
)

// Route paths
const (
	PathHealth   = "/health"
	PathRequests = "/v1/requests"
	PathHandlers = "/v1/handlers"
)
