// Package server exposes the request engine over HTTP using echo.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/reqengine/config"
	"github.com/gaborage/reqengine/engine"
	"github.com/gaborage/reqengine/logger"
)

// Server is the HTTP surface of an engine.
type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	engine *engine.Engine
	logger logger.Logger
}

// Option customizes a Server.
type Option func(*serverOptions)

type serverOptions struct {
	tracerProvider trace.TracerProvider
}

// WithTracerProvider traces inbound requests with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *serverOptions) {
		o.tracerProvider = tp
	}
}

// New creates a server dispatching into eng and registers its routes.
func New(cfg *config.Config, eng *engine.Engine, log logger.Logger, opts ...Option) (*Server, error) {
	if cfg == nil || eng == nil {
		return nil, errors.New("server: config and engine are required")
	}
	if log == nil {
		log = logger.Nop()
	}

	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	v := NewValidator()
	if v == nil {
		return nil, errors.New("server: failed to initialize request validator")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = v

	s := &Server{echo: e, cfg: cfg, engine: eng, logger: log}
	e.HTTPErrorHandler = s.errorHandler

	SetupMiddlewares(e, log, cfg.App.Name, o.tracerProvider)

	e.GET(PathHealth, s.healthCheck)
	e.GET(PathHandlers, s.listHandlers)
	e.POST(PathRequests, s.dispatch)

	return s, nil
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Address is the configured listen address.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
}

// Start listens on the configured address and blocks until shutdown.
// It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	addr := s.Address()
	s.logger.Info().
		Str("service", s.cfg.App.Name).
		Str("env", s.cfg.App.Env).
		Str("address", addr).
		Msg("Starting server")

	// echo.Shutdown only stops e.Server, so that is the instance configured here
	s.echo.Server.ReadTimeout = DefaultReadTimeout
	s.echo.Server.IdleTimeout = DefaultIdleTimeout
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) respondError(c echo.Context, apiErr IAPIError) error {
	return formatErrorResponse(c, apiErr, s.cfg.App.Env)
}

// errorHandler renders errors that escaped the handlers, such as echo's 404
// and 405 responses, in the standard envelope.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr IAPIError
	if errors.As(err, &apiErr) {
		_ = s.respondError(c, apiErr)
		return
	}

	status := http.StatusInternalServerError
	msg := "An error occurred while processing your request"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	base := NewBaseAPIError(statusToErrorCode(status), msg, status)
	if s.cfg.App.Env == config.EnvDevelopment {
		_ = base.WithDetails("error", err.Error())
	}
	_ = s.respondError(c, base)
}
