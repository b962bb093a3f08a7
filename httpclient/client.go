package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/gaborage/reqengine/logger"
)

const (
	// DefaultTimeout is the client-wide timeout when no per-request timeout is given
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPayloadLogBytes caps payload previews in debug logs
	DefaultMaxPayloadLogBytes = 1024

	proxySchemeAll = "all"
)

// client implements the Client interface
type client struct {
	httpClient           *nethttp.Client
	logger               logger.Logger
	config               *Config
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	limiter              *rate.Limiter
	callCount            int64

	// proxyClients caches one *http.Client per distinct proxy set so that
	// connections are pooled across requests using the same proxies.
	proxyClients sync.Map
}

// NewClient creates a new REST client with default configuration
func NewClient(log logger.Logger) Client {
	return NewBuilder(log).Build()
}

// Builder provides a fluent interface for configuring the REST client
type Builder struct {
	config     *Config
	logger     logger.Logger
	httpClient *nethttp.Client
	transport  nethttp.RoundTripper
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		config: &Config{
			Timeout:              DefaultTimeout,
			RequestInterceptors:  []RequestInterceptor{},
			ResponseInterceptors: []ResponseInterceptor{},
			DefaultHeaders:       make(map[string]string),
			MaxPayloadLogBytes:   DefaultMaxPayloadLogBytes,
			RequestIDHeader:      HeaderXRequestID,
		},
		logger: log,
	}
}

// WithTimeout sets the client-wide request timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithBasicAuth sets basic authentication credentials
func (b *Builder) WithBasicAuth(username, password string) *Builder {
	b.config.BasicAuth = &BasicAuth{Username: username, Password: password}
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithPayloadLogging enables debug logging of headers and bodies, truncated at maxBytes
func (b *Builder) WithPayloadLogging(maxBytes int) *Builder {
	b.config.LogPayloads = true
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// WithRequestIDHeader changes the header carrying the request id; empty keeps the default
func (b *Builder) WithRequestIDHeader(header string) *Builder {
	if header != "" {
		b.config.RequestIDHeader = header
	}
	return b
}

// WithRateLimit limits outbound sends to rps requests per second with the given burst
func (b *Builder) WithRateLimit(rps float64, burst int) *Builder {
	b.config.RateLimit = rps
	b.config.RateBurst = burst
	return b
}

// WithHTTPClient uses a caller-provided *http.Client. A zero Timeout on it
// is replaced with the builder timeout.
func (b *Builder) WithHTTPClient(c *nethttp.Client) *Builder {
	b.httpClient = c
	return b
}

// WithTransport sets the round tripper used for requests without proxies
func (b *Builder) WithTransport(rt nethttp.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// Build creates the REST client with the configured options
func (b *Builder) Build() Client {
	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &nethttp.Client{}
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = b.config.Timeout
	}
	if b.transport != nil {
		httpClient.Transport = b.transport
	}

	if b.config.MaxPayloadLogBytes <= 0 {
		b.config.MaxPayloadLogBytes = DefaultMaxPayloadLogBytes
	}

	var limiter *rate.Limiter
	if b.config.RateLimit > 0 {
		burst := b.config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(b.config.RateLimit), burst)
	}

	return &client{
		httpClient:           httpClient,
		logger:               b.logger,
		config:               b.config,
		requestInterceptors:  b.config.RequestInterceptors,
		responseInterceptors: b.config.ResponseInterceptors,
		limiter:              limiter,
	}
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, req)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, req)
}

// Do sends exactly one HTTP request. Responses with status >= 400 are returned
// together with an HTTP error so callers can inspect the body.
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	timeout := c.effectiveTimeout(req)
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpClient, err := c.clientFor(req)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, NewRateLimitError(err)
		}
	}

	start := time.Now()
	callCount := atomic.AddInt64(&c.callCount, 1)
	requestID := EnsureRequestID(ctx)

	httpReq, err := c.buildRequest(ctx, method, req, requestID)
	if err != nil {
		return nil, err
	}
	c.logRequest(httpReq, req.Body, requestID)

	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		if c.isTimeout(err) {
			return nil, NewTimeoutError("request timeout", timeout)
		}
		return nil, NewNetworkError("request execution failed", err)
	}

	resp, err := c.buildResponse(ctx, start, callCount, httpReq, httpResp)
	if err != nil {
		if c.isTimeout(err) {
			return nil, NewTimeoutError("response body timeout", timeout)
		}
		return nil, err
	}
	c.logResponse(resp, requestID)

	if resp.StatusCode >= nethttp.StatusBadRequest {
		return resp, NewHTTPError(
			fmt.Sprintf("HTTP request failed with status %d", resp.StatusCode),
			resp.StatusCode,
			resp.Body,
		)
	}
	return resp, nil
}

func (c *client) effectiveTimeout(req *Request) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	return c.httpClient.Timeout
}

// validateRequest validates the request before sending
func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if req.URL == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	return nil
}

// clientFor returns the shared client, or a cached proxy-aware client when
// the request names proxies.
func (c *client) clientFor(req *Request) (*nethttp.Client, error) {
	if len(req.Proxies) == 0 {
		return c.httpClient, nil
	}

	key := proxyKey(req.Proxies)
	if cached, ok := c.proxyClients.Load(key); ok {
		return cached.(*nethttp.Client), nil
	}

	proxy, err := proxyFunc(req.Proxies)
	if err != nil {
		return nil, err
	}

	base, ok := c.httpClient.Transport.(*nethttp.Transport)
	if c.httpClient.Transport == nil {
		base, ok = nethttp.DefaultTransport.(*nethttp.Transport)
	}
	if !ok {
		return nil, NewValidationError("proxies require an *http.Transport based client", "proxies")
	}

	transport := base.Clone()
	transport.Proxy = proxy
	proxied := &nethttp.Client{
		Transport:     transport,
		Timeout:       c.httpClient.Timeout,
		CheckRedirect: c.httpClient.CheckRedirect,
		Jar:           c.httpClient.Jar,
	}

	actual, _ := c.proxyClients.LoadOrStore(key, proxied)
	return actual.(*nethttp.Client), nil
}

func proxyKey(proxies map[string]string) string {
	parts := make([]string, 0, len(proxies))
	for scheme, target := range proxies {
		parts = append(parts, strings.ToLower(scheme)+"="+target)
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// proxyFunc selects a proxy by request scheme, falling back to the "all" entry.
func proxyFunc(proxies map[string]string) (func(*nethttp.Request) (*url.URL, error), error) {
	parsed := make(map[string]*url.URL, len(proxies))
	for scheme, raw := range proxies {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return nil, NewValidationError(fmt.Sprintf("invalid proxy URL for %s", scheme), "proxies")
		}
		parsed[strings.ToLower(scheme)] = u
	}

	return func(r *nethttp.Request) (*url.URL, error) {
		if u, ok := parsed[r.URL.Scheme]; ok {
			return u, nil
		}
		if u, ok := parsed[proxySchemeAll]; ok {
			return u, nil
		}
		return nil, nil
	}, nil
}

// applyHeaders applies headers to the HTTP request
func (c *client) applyHeaders(httpReq *nethttp.Request, req *Request, requestID string) {
	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}

	// Request-specific headers override defaults
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if httpReq.Header.Get("Content-Type") == "" && req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.config.RequestIDHeader != "" && httpReq.Header.Get(c.config.RequestIDHeader) == "" {
		httpReq.Header.Set(c.config.RequestIDHeader, requestID)
	}
}

// applyAuth applies authentication to the HTTP request
func (c *client) applyAuth(httpReq *nethttp.Request, req *Request) {
	// Request-specific auth takes precedence
	auth := req.Auth
	if auth == nil {
		auth = c.config.BasicAuth
	}

	if auth != nil {
		httpReq.SetBasicAuth(auth.Username, auth.Password)
	}
}

// buildRequest constructs an *http.Request, applies headers/auth, and runs request interceptors.
func (c *client) buildRequest(ctx context.Context, method string, req *Request, requestID string) (*nethttp.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("failed to create HTTP request: %v", err), "url")
	}

	c.applyHeaders(httpReq, req, requestID)
	c.applyAuth(httpReq, req)

	if err := c.runRequestInterceptors(ctx, httpReq); err != nil {
		return nil, NewInterceptorError("request interceptor failed", "request", err)
	}
	return httpReq, nil
}

// buildResponse runs response interceptors, reads body, and builds a Response.
func (c *client) buildResponse(ctx context.Context, start time.Time, callCount int64, httpReq *nethttp.Request, httpResp *nethttp.Response) (*Response, error) {
	defer httpResp.Body.Close()

	if err := c.runResponseInterceptors(ctx, httpReq, httpResp); err != nil {
		return nil, NewInterceptorError("response interceptor failed", "response", err)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
		Stats: Stats{
			ElapsedTime: time.Since(start),
			CallCount:   callCount,
		},
	}, nil
}

func (c *client) isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// runRequestInterceptors executes all request interceptors
func (c *client) runRequestInterceptors(ctx context.Context, req *nethttp.Request) error {
	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// runResponseInterceptors executes all response interceptors
func (c *client) runResponseInterceptors(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error {
	for _, interceptor := range c.responseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}
