package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config is the full application configuration. The koanf instance it was
// loaded from is kept for raw key access through the Get* methods.
type Config struct {
	App           AppConfig           `koanf:"app"`
	DB            DatabaseConfig      `koanf:"database"`
	Log           LogConfig           `koanf:"log"`
	Engine        EngineConfig        `koanf:"engine"`
	Transport     TransportConfig     `koanf:"transport"`
	Observability ObservabilityConfig `koanf:"observability"`
	Server        ServerConfig        `koanf:"server"`

	k *koanf.Koanf
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name string `koanf:"name" validate:"required"`
	Env  string `koanf:"env" validate:"oneof=development staging production"`
}

// DatabaseConfig is the database section. The engine does not use it; it is
// exposed for applications that derive request targets from it.
type DatabaseConfig struct {
	Server   string `koanf:"server"`
	Port     int    `koanf:"port" validate:"omitempty,min=1,max=65535"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Redacted returns a copy safe to print.
func (d DatabaseConfig) Redacted() DatabaseConfig {
	if d.Password != "" {
		d.Password = redactedValue
	}
	return d
}

// LogConfig configures the logger. The section may also be written as "logging".
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Path   string `koanf:"path"`
	Pretty bool   `koanf:"pretty"`
}

// EngineConfig holds the default retry policy and per-attempt timeout.
type EngineConfig struct {
	MaxAttempts int           `koanf:"maxattempts" validate:"min=1"`
	Delay       time.Duration `koanf:"delay" validate:"gte=0"`
	// Timeout bounds each attempt; zero disables it
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

// TransportConfig configures the HTTP client used by the built-in handlers.
type TransportConfig struct {
	// Timeout is a client-wide limit on top of the per-attempt timeout; zero disables it
	Timeout            time.Duration     `koanf:"timeout" validate:"gte=0"`
	LogPayloads        bool              `koanf:"logpayloads"`
	MaxPayloadLogBytes int               `koanf:"maxpayloadlogbytes" validate:"gte=0"`
	RateLimit          RateLimitConfig   `koanf:"ratelimit"`
	Headers            map[string]string `koanf:"headers"`
}

// RateLimitConfig limits outbound requests; RPS zero disables limiting.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps" validate:"gte=0"`
	Burst int     `koanf:"burst" validate:"gte=0"`
}

// ObservabilityConfig selects OpenTelemetry exporters.
type ObservabilityConfig struct {
	Enabled bool           `koanf:"enabled"`
	Service string         `koanf:"service" validate:"required_if=Enabled true"`
	Trace   ExporterConfig `koanf:"trace"`
	Metrics ExporterConfig `koanf:"metrics"`
}

// ExporterConfig describes one signal exporter.
type ExporterConfig struct {
	Exporter string `koanf:"exporter" validate:"omitempty,oneof=stdout otlp none"`
	Endpoint string `koanf:"endpoint"`
	Protocol string `koanf:"protocol" validate:"omitempty,oneof=http grpc"`
	Insecure bool   `koanf:"insecure"`
	// Interval is the metric export period; ignored for traces
	Interval time.Duration `koanf:"interval" validate:"gte=0"`
}

// ServerConfig is the listen address of the HTTP surface.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`
}
