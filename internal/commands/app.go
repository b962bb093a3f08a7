package commands

import (
	"errors"
	"io"

	"github.com/gaborage/reqengine/config"
	"github.com/gaborage/reqengine/engine"
	"github.com/gaborage/reqengine/httpclient"
	"github.com/gaborage/reqengine/logger"
	"github.com/gaborage/reqengine/observability"
)

// app holds everything a command needs, built from configuration.
type app struct {
	cfg      *config.Config
	log      *logger.ZeroLogger
	provider observability.Provider
	engine   *engine.Engine
}

func loadConfig(opts *GlobalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// newApp loads configuration and wires the logger, telemetry, transport and
// engine. Logs go to logOut unless the configuration names a file.
func newApp(opts *GlobalOptions, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewWithConfig(logger.Config{
		Level:  cfg.Log.Level,
		Path:   cfg.Log.Path,
		Pretty: cfg.Log.Pretty,
		Writer: logOut,
	})
	if err != nil {
		return nil, err
	}

	obsCfg := observability.FromSettings(cfg)
	provider, err := observability.NewProvider(&obsCfg, log)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	eng := engine.New(
		engine.WithLogger(log),
		engine.WithHTTPClient(newTransport(cfg.Transport, log)),
		engine.WithDefaultPolicy(engine.Policy{MaxAttempts: cfg.Engine.MaxAttempts, Delay: cfg.Engine.Delay}),
		engine.WithDefaultTimeout(cfg.Engine.Timeout),
		engine.WithTracerProvider(provider.TracerProvider()),
	)

	return &app{cfg: cfg, log: log, provider: provider, engine: eng}, nil
}

func newTransport(cfg config.TransportConfig, log logger.Logger) httpclient.Client {
	b := httpclient.NewBuilder(log).WithTimeout(cfg.Timeout)
	for k, v := range cfg.Headers {
		b = b.WithDefaultHeader(k, v)
	}
	if cfg.RateLimit.RPS > 0 {
		b = b.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	if cfg.LogPayloads {
		b = b.WithPayloadLogging(cfg.MaxPayloadLogBytes)
	}
	return b.Build()
}

// Close flushes telemetry and releases the log file.
func (a *app) Close() error {
	return errors.Join(
		observability.Shutdown(a.provider, 0),
		a.log.Close(),
	)
}
