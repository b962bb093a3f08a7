package observability

import (
	"fmt"
	"io"
	"maps"
	"time"

	"github.com/gaborage/reqengine/config"
)

const (
	// ExporterStdout prints spans and metrics to the configured writer (stdout by default).
	ExporterStdout = "stdout"

	// ExporterOTLP sends telemetry to an OpenTelemetry collector.
	ExporterOTLP = "otlp"

	// ExporterNone disables one signal while keeping the other.
	ExporterNone = "none"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// DefaultMetricInterval is the export period used when none is configured.
	DefaultMetricInterval = 60 * time.Second

	defaultVersion     = "unknown"
	defaultEnvironment = "development"
)

// Config defines the configuration for tracing and metrics export.
type Config struct {
	// Enabled controls whether observability is active.
	// When false, NewProvider returns a no-op provider.
	Enabled bool

	// Service identifies this process in traces and metrics.
	Service ServiceConfig

	// Environment indicates the deployment environment (development, staging, production).
	Environment string

	Trace   ExporterConfig
	Metrics ExporterConfig

	// Writer receives stdout exporter output; nil means os.Stdout.
	Writer io.Writer
}

// ServiceConfig contains service identification metadata.
type ServiceConfig struct {
	Name    string
	Version string
}

// ExporterConfig describes where one signal is exported.
type ExporterConfig struct {
	Exporter string
	Endpoint string
	Protocol string
	Insecure bool
	// Headers are sent with every OTLP export, e.g. for authentication
	Headers map[string]string
	// Interval is the metric export period; ignored for traces
	Interval time.Duration
}

// FromSettings builds a Config from the loaded application configuration.
func FromSettings(cfg *config.Config) Config {
	if cfg == nil {
		return Config{}
	}
	obs := cfg.Observability
	return Config{
		Enabled:     obs.Enabled,
		Service:     ServiceConfig{Name: obs.Service},
		Environment: cfg.App.Env,
		Trace:       exporterFromSettings(obs.Trace),
		Metrics:     exporterFromSettings(obs.Metrics),
	}
}

func exporterFromSettings(e config.ExporterConfig) ExporterConfig {
	return ExporterConfig{
		Exporter: e.Exporter,
		Endpoint: e.Endpoint,
		Protocol: e.Protocol,
		Insecure: e.Insecure,
		Interval: e.Interval,
	}
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Service.Version == "" {
		c.Service.Version = defaultVersion
	}
	if c.Environment == "" {
		c.Environment = defaultEnvironment
	}
	c.Trace.applyDefaults()
	c.Metrics.applyDefaults()
	if c.Metrics.Interval <= 0 {
		c.Metrics.Interval = DefaultMetricInterval
	}
	c.Trace.Headers = cloneHeaderMap(c.Trace.Headers)
	c.Metrics.Headers = cloneHeaderMap(c.Metrics.Headers)
}

func (e *ExporterConfig) applyDefaults() {
	if e.Exporter == "" {
		e.Exporter = ExporterStdout
	}
	if e.Protocol == "" {
		e.Protocol = ProtocolHTTP
	}
}

// Validate checks the configuration. A disabled config is always valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.Service.Name == "" {
		return ErrMissingServiceName
	}
	if err := c.Trace.validate(); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	if err := c.Metrics.validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

func (e *ExporterConfig) validate() error {
	switch e.Exporter {
	case ExporterStdout, ExporterNone:
		return nil
	case ExporterOTLP:
	default:
		return fmt.Errorf("exporter '%s': %w", e.Exporter, ErrInvalidExporter)
	}

	if e.Protocol != ProtocolHTTP && e.Protocol != ProtocolGRPC {
		return fmt.Errorf("protocol '%s': %w", e.Protocol, ErrInvalidProtocol)
	}
	if e.Endpoint == "" {
		return ErrMissingEndpoint
	}
	return nil
}

func cloneHeaderMap(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	return maps.Clone(headers)
}
