package observability

import "errors"

// ErrNilConfig is returned when Validate is called on a nil Config pointer.
var ErrNilConfig = errors.New("observability: config is nil")

// ErrMissingServiceName is returned when observability is enabled but no service name is configured.
var ErrMissingServiceName = errors.New("observability: service name is required when observability is enabled")

// ErrInvalidExporter is returned when an exporter is not "stdout", "otlp" or "none".
var ErrInvalidExporter = errors.New("observability: exporter must be one of 'stdout', 'otlp' or 'none'")

// ErrInvalidProtocol is returned when the OTLP protocol is not "http" or "grpc".
var ErrInvalidProtocol = errors.New("observability: protocol must be either 'http' or 'grpc'")

// ErrMissingEndpoint is returned when an OTLP exporter has no endpoint.
var ErrMissingEndpoint = errors.New("observability: otlp exporter requires an endpoint")
