package engine

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/reqengine/httpclient"
	"github.com/gaborage/reqengine/logger"
)

func newIPv4TestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	lc := net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: unable to bind IPv4 listener: %v", err)
		return &httptest.Server{}
	}

	server := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	server.Start()
	t.Cleanup(server.Close)
	return server
}

// recordingClient is a session stub that records the last request it was given
type recordingClient struct {
	mu     sync.Mutex
	method string
	req    *httpclient.Request
	resp   *httpclient.Response
	err    error
}

func (c *recordingClient) Do(_ context.Context, method string, req *httpclient.Request) (*httpclient.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.method = method
	c.req = req
	if c.resp == nil && c.err == nil {
		return &httpclient.Response{StatusCode: http.StatusOK, Body: []byte("from session")}, nil
	}
	return c.resp, c.err
}

func (c *recordingClient) Get(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	return c.Do(ctx, http.MethodGet, req)
}

func (c *recordingClient) Post(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	return c.Do(ctx, http.MethodPost, req)
}

func (c *recordingClient) Put(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	return c.Do(ctx, http.MethodPut, req)
}

func (c *recordingClient) Patch(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	return c.Do(ctx, http.MethodPatch, req)
}

func (c *recordingClient) Delete(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	return c.Do(ctx, http.MethodDelete, req)
}

func testClient() httpclient.Client {
	return httpclient.NewBuilder(logger.Nop()).WithTimeout(0).Build()
}

func TestVerbMethod(t *testing.T) {
	assert.Equal(t, http.MethodGet, VerbGet.Method())
	assert.Equal(t, http.MethodPost, VerbPost.Method())
	assert.Equal(t, http.MethodPut, VerbPut.Method())
	assert.Equal(t, http.MethodPatch, VerbPatch.Method())
	assert.Equal(t, http.MethodDelete, VerbDelete.Method())
	assert.Equal(t, "Verb(9)", Verb(9).String())
}

func TestHTTPHandlerGet(t *testing.T) {
	server := newIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body, "GET sends no payload")
		_, _ = w.Write([]byte("hello"))
	}))

	out := NewGetHandler(testClient()).Execute(context.Background(), Description{
		FieldType:    "HTTP_GET",
		FieldURL:     server.URL,
		FieldData:    map[string]any{"ignored": true},
		FieldHeaders: map[string]any{"X-Test": "yes"},
	}, time.Second)

	require.Equal(t, OutcomeSuccess, out.Kind, "unexpected error: %v", out.Err)
	assert.Equal(t, "hello", out.Payload)
}

func TestHTTPHandlerPostEncodings(t *testing.T) {
	tests := []struct {
		name            string
		data            any
		headers         map[string]string
		wantBody        string
		wantContentType string
	}{
		{
			name:            "map is form encoded",
			data:            map[string]any{"key": "value", "n": 1},
			wantBody:        "key=value&n=1",
			wantContentType: "application/x-www-form-urlencoded",
		},
		{
			name:            "string map is form encoded",
			data:            map[string]string{"a": "b c"},
			wantBody:        "a=b+c",
			wantContentType: "application/x-www-form-urlencoded",
		},
		{
			name:            "list values repeat the key",
			data:            map[string]any{"tag": []any{"x", "y"}},
			wantBody:        "tag=x&tag=y",
			wantContentType: "application/x-www-form-urlencoded",
		},
		{
			name:            "raw string with explicit content type",
			data:            "plain text",
			headers:         map[string]string{"content-type": "text/plain"},
			wantBody:        "plain text",
			wantContentType: "text/plain",
		},
		{
			name:            "bytes are sent as is",
			data:            []byte(`{"raw":true}`),
			wantBody:        `{"raw":true}`,
			wantContentType: "application/json",
		},
		{
			name:            "other values are JSON",
			data:            []int{1, 2, 3},
			wantBody:        "[1,2,3]",
			wantContentType: "application/json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.wantContentType, r.Header.Get("Content-Type"))
				body, _ := io.ReadAll(r.Body)
				assert.Equal(t, tt.wantBody, string(body))
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte("created"))
			}))

			d := Description{FieldType: "HTTP_POST", FieldURL: server.URL, FieldData: tt.data}
			if tt.headers != nil {
				d[FieldHeaders] = tt.headers
			}

			out := NewPostHandler(testClient()).Execute(context.Background(), d, time.Second)
			require.Equal(t, OutcomeSuccess, out.Kind, "unexpected error: %v", out.Err)
			assert.Equal(t, "created", out.Payload)
		})
	}
}

func TestHTTPHandlerFailureStatus(t *testing.T) {
	server := newIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	out := NewGetHandler(testClient()).Execute(context.Background(),
		Description{FieldURL: server.URL}, time.Second)

	assert.Equal(t, OutcomeTransportFailure, out.Kind)
	assert.True(t, httpclient.IsHTTPStatusError(out.Err, http.StatusServiceUnavailable))
}

func TestHTTPHandlerTimeoutIsTransportFailure(t *testing.T) {
	server := newIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	}))

	out := NewGetHandler(testClient()).Execute(context.Background(),
		Description{FieldURL: server.URL}, 20*time.Millisecond)

	assert.Equal(t, OutcomeTransportFailure, out.Kind)
	assert.True(t, httpclient.IsErrorType(out.Err, httpclient.TimeoutError))
}

func TestHTTPHandlerRejectsMalformedDescriptions(t *testing.T) {
	tests := []struct {
		name string
		desc Description
	}{
		{"missing url", Description{FieldType: "HTTP_GET"}},
		{"url not a string", Description{FieldURL: 42}},
		{"headers not a map", Description{FieldURL: "http://example.com", FieldHeaders: "X-A: b"}},
		{"session of wrong type", Description{FieldURL: "http://example.com", FieldSession: "conn"}},
		{"invalid proxy", Description{FieldURL: "http://example.com", FieldProxies: map[string]string{"http": "::bad"}}},
		{"unencodable data", Description{FieldURL: "http://example.com", FieldData: make(chan int)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewPostHandler(testClient()).Execute(context.Background(), tt.desc, time.Second)
			assert.Equal(t, OutcomeInvalidRequest, out.Kind)
			assert.Error(t, out.Err)
		})
	}
}

func TestHTTPHandlerUsesSession(t *testing.T) {
	session := &recordingClient{}
	proxies := map[string]string{"http": "http://proxy.local:3128", "https": "http://proxy.local:3129"}

	out := NewPostHandler(nil).Execute(context.Background(), Description{
		FieldURL:     "http://example.com/submit",
		FieldSession: session,
		FieldProxies: proxies,
		FieldData:    "payload",
	}, 3*time.Second)

	require.Equal(t, OutcomeSuccess, out.Kind, "unexpected error: %v", out.Err)
	assert.Equal(t, "from session", out.Payload)
	assert.Equal(t, http.MethodPost, session.method)
	assert.Equal(t, "http://example.com/submit", session.req.URL)
	assert.Equal(t, proxies, session.req.Proxies)
	assert.Equal(t, 3*time.Second, session.req.Timeout)
	assert.Equal(t, []byte("payload"), session.req.Body)
}

func TestHTTPHandlerWithoutClient(t *testing.T) {
	out := NewGetHandler(nil).Execute(context.Background(), Description{FieldURL: "http://example.com"}, 0)
	assert.Equal(t, OutcomeInvalidRequest, out.Kind)
}

func TestHTTPHandlerNetworkErrorIsTransportFailure(t *testing.T) {
	session := &recordingClient{err: httpclient.NewNetworkError("dial failed", errConnRefused)}

	out := NewGetHandler(nil).Execute(context.Background(),
		Description{FieldURL: "http://example.com", FieldSession: session}, 0)
	assert.Equal(t, OutcomeTransportFailure, out.Kind)
	assert.ErrorIs(t, out.Err, errConnRefused)
}

func TestEngineRetriesHTTPUntilSuccess(t *testing.T) {
	var hits atomic.Int32
	server := newIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.NotEmpty(t, r.Header.Get(httpclient.HeaderXRequestID))
		_, _ = w.Write([]byte("finally"))
	}))

	e := New(WithHTTPClient(testClient()))
	res, err := e.Handle(context.Background(), Description{FieldType: "HTTP_GET", FieldURL: server.URL},
		WithMaxAttempts(3), WithDelay(0), WithTimeout(time.Second))
	require.NoError(t, err)
	require.True(t, res.OK(), "status %s: %v", res.Status, res.Err)

	text, ok := res.Text()
	assert.True(t, ok)
	assert.Equal(t, "finally", text)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, int32(3), hits.Load())
}

func TestEngineHTTPExhausted(t *testing.T) {
	var hits atomic.Int32
	server := newIPv4TestServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	e := New(WithHTTPClient(testClient()))
	res, err := e.Handle(context.Background(), Description{FieldType: "HTTP_POST", FieldURL: server.URL, FieldData: map[string]any{"k": "v"}},
		WithMaxAttempts(2), WithDelay(0))
	require.NoError(t, err)
	assert.Equal(t, StatusExhausted, res.Status)
	assert.Equal(t, int32(2), hits.Load())
	assert.True(t, httpclient.IsHTTPStatusError(res.Err, http.StatusInternalServerError))
}
