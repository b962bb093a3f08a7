package httpclient

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggingClient(log *fakeLogger, logPayloads bool, maxBytes int) *client {
	return &client{
		logger: log,
		config: &Config{LogPayloads: logPayloads, MaxPayloadLogBytes: maxBytes},
	}
}

func TestClientLogRequest(t *testing.T) {
	t.Run("info line carries request metadata", func(t *testing.T) {
		fakeLog := &fakeLogger{}
		c := newLoggingClient(fakeLog, false, 1024)

		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "https://api.example.com/users", http.NoBody)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer token")
		req.Header.Set("Content-Type", "application/json")
		body := []byte(`{"name": "test user"}`)

		c.logRequest(req, body, "req-123")

		infoEvents := fakeLog.eventsByLevel("info")
		require.Len(t, infoEvents, 1)
		event := infoEvents[0]
		assert.Equal(t, msgClientRequest, event.message)
		assert.Equal(t, "outbound", event.fields["direction"])
		assert.Equal(t, http.MethodPost, event.fields["method"])
		assert.Equal(t, "https://api.example.com/users", event.fields["url"])
		assert.Equal(t, "req-123", event.fields["request_id"])
		assert.Equal(t, 2, event.fields["header_count"])
		assert.Equal(t, len(body), event.fields["body_size"])
		assert.Empty(t, fakeLog.eventsByLevel("debug"))
	})

	t.Run("empty body and headers are omitted", func(t *testing.T) {
		fakeLog := &fakeLogger{}
		c := newLoggingClient(fakeLog, false, 0)

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "https://api.example.com/status", http.NoBody)
		require.NoError(t, err)

		c.logRequest(req, nil, "req-456")

		event := fakeLog.eventsByLevel("info")[0]
		assert.NotContains(t, event.fields, "body_size")
		assert.NotContains(t, event.fields, "header_count")
	})

	tests := []struct {
		name          string
		maxBytes      int
		body          []byte
		wantTruncated string
		wantPreview   int
	}{
		{"small body is not truncated", 50, []byte("short body"), "false", 10},
		{"large body is truncated", 10, []byte("This body is longer than ten bytes"), "true", 10},
		{"zero limit falls back to default", 0, make([]byte, 1500), "true", DefaultMaxPayloadLogBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeLog := &fakeLogger{}
			c := newLoggingClient(fakeLog, true, tt.maxBytes)

			req, err := http.NewRequestWithContext(context.Background(), http.MethodPut, "https://api.example.com/resource", http.NoBody)
			require.NoError(t, err)
			req.Header.Set("X-Trace", "1")

			c.logRequest(req, tt.body, "req-789")

			debugEvents := fakeLog.eventsByLevel("debug")
			require.Len(t, debugEvents, 1)
			event := debugEvents[0]
			assert.Equal(t, msgClientRequest, event.message)
			assert.Equal(t, "req-789", event.fields["request_id"])
			assert.NotNil(t, event.fields["headers"])
			assert.Equal(t, len(tt.body), event.fields["body_size"])
			assert.Equal(t, tt.wantTruncated, event.fields["body_truncated"])
			assert.Equal(t, tt.body[:tt.wantPreview], event.fields["body_preview"])
		})
	}
}

func TestClientLogResponse(t *testing.T) {
	t.Run("info line carries status and timing", func(t *testing.T) {
		fakeLog := &fakeLogger{}
		c := newLoggingClient(fakeLog, false, 1024)

		resp := &Response{
			StatusCode: http.StatusOK,
			Body:       []byte(`{"success": true}`),
			Headers:    http.Header{"Content-Type": []string{"application/json"}},
			Stats:      Stats{ElapsedTime: 250 * time.Millisecond, CallCount: 5},
		}

		c.logResponse(resp, "req-response")

		infoEvents := fakeLog.eventsByLevel("info")
		require.Len(t, infoEvents, 1)
		event := infoEvents[0]
		assert.Equal(t, msgClientResponse, event.message)
		assert.Equal(t, "inbound", event.fields["direction"])
		assert.Equal(t, http.StatusOK, event.fields["status"])
		assert.Equal(t, 250*time.Millisecond, event.fields["elapsed"])
		assert.Equal(t, int64(5), event.fields["call_count"])
		assert.Equal(t, "req-response", event.fields["request_id"])
		assert.Equal(t, len(resp.Body), event.fields["body_size"])
		assert.Empty(t, fakeLog.eventsByLevel("debug"))
	})

	t.Run("payload logging truncates the preview", func(t *testing.T) {
		fakeLog := &fakeLogger{}
		c := newLoggingClient(fakeLog, true, 15)

		body := []byte(`{"data": "this is a very long response that should be truncated"}`)
		c.logResponse(&Response{StatusCode: http.StatusCreated, Body: body, Headers: http.Header{}}, "req-large")

		event := fakeLog.eventsByLevel("debug")[0]
		assert.Equal(t, http.StatusCreated, event.fields["status"])
		assert.Equal(t, "true", event.fields["body_truncated"])
		assert.Equal(t, body[:15], event.fields["body_preview"])
	})

	t.Run("empty body omits size", func(t *testing.T) {
		fakeLog := &fakeLogger{}
		c := newLoggingClient(fakeLog, false, 0)

		c.logResponse(&Response{StatusCode: http.StatusNoContent, Headers: http.Header{}}, "req-empty")

		event := fakeLog.eventsByLevel("info")[0]
		assert.Equal(t, http.StatusNoContent, event.fields["status"])
		assert.NotContains(t, event.fields, "body_size")
	})
}

func TestBuilderLoggingDefaults(t *testing.T) {
	fakeLog := &fakeLogger{}

	built := NewBuilder(fakeLog).WithTimeout(5 * time.Second).Build()
	impl := built.(*client)

	assert.False(t, impl.config.LogPayloads)
	assert.Equal(t, DefaultMaxPayloadLogBytes, impl.config.MaxPayloadLogBytes)

	enabled := NewBuilder(fakeLog).WithPayloadLogging(64).Build().(*client)
	assert.True(t, enabled.config.LogPayloads)
	assert.Equal(t, 64, enabled.config.MaxPayloadLogBytes)
}
