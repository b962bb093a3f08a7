package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/reqengine/httpclient"
	"github.com/gaborage/reqengine/logger"
)

// SetupMiddlewares registers request id, tracing, logging, recovery and body
// limit middleware on e. A nil tp uses the global tracer provider.
func SetupMiddlewares(e *echo.Echo, log logger.Logger, service string, tp trace.TracerProvider) {
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:    httpclient.NewRequestID,
		TargetHeader: echo.HeaderXRequestID,
	}))

	otelOpts := []otelecho.Option{
		otelecho.WithSkipper(func(c echo.Context) bool { return c.Path() == PathHealth }),
	}
	if tp != nil {
		otelOpts = append(otelOpts, otelecho.WithTracerProvider(tp))
	}
	e.Use(otelecho.Middleware(service, otelOpts...))

	e.Use(Logger(log, LoggerConfig{
		SkipPaths:            []string{PathHealth},
		SlowRequestThreshold: DefaultSlowRequestThreshold,
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error().
				Err(err).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Bytes("stack", stack).
				Msg("Panic recovered")
			return err
		},
	}))

	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(Timing())
}
