package engine

import (
	"time"

	"github.com/coder/quartz"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/reqengine/httpclient"
	"github.com/gaborage/reqengine/logger"
)

type options struct {
	logger         logger.Logger
	clock          quartz.Clock
	observers      []Observer
	httpClient     httpclient.Client
	builtins       bool
	policy         Policy
	timeout        time.Duration
	tracerProvider trace.TracerProvider
	handlers       []registration
}

type registration struct {
	t Type
	h Handler
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger used for dispatch and retry diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithClock replaces the clock driving retry waits, mostly for tests.
func WithClock(clock quartz.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithObserver adds an observer of retry events. It can be given more than once.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observers = append(o.observers, observer)
		}
	}
}

// WithHTTPClient sets the transport of the built-in HTTP handlers.
func WithHTTPClient(client httpclient.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithoutBuiltinHandlers leaves HTTP_GET and HTTP_POST unregistered.
func WithoutBuiltinHandlers() Option {
	return func(o *options) {
		o.builtins = false
	}
}

// WithDefaultPolicy sets the policy used when a call does not override it.
func WithDefaultPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithDefaultTimeout sets the per-attempt timeout used when a call does not
// override it. Zero disables the per-attempt timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithTracerProvider sets the provider for engine spans; the global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithHandler registers h for t after the built-in handlers, so it can replace them.
func WithHandler(t Type, h Handler) Option {
	return func(o *options) {
		o.handlers = append(o.handlers, registration{t: t, h: h})
	}
}

type callOptions struct {
	policy  Policy
	timeout time.Duration
}

// CallOption overrides engine defaults for a single Handle call.
type CallOption func(*callOptions)

// WithMaxAttempts sets the number of executions before giving up.
func WithMaxAttempts(n int) CallOption {
	return func(c *callOptions) {
		c.policy.MaxAttempts = n
	}
}

// WithDelay sets the wait between attempts.
func WithDelay(d time.Duration) CallOption {
	return func(c *callOptions) {
		c.policy.Delay = d
	}
}

// WithPolicy replaces the whole retry policy.
func WithPolicy(p Policy) CallOption {
	return func(c *callOptions) {
		c.policy = p
	}
}

// WithTimeout sets the per-attempt timeout; zero means none.
func WithTimeout(d time.Duration) CallOption {
	return func(c *callOptions) {
		c.timeout = d
	}
}
