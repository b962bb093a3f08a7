package httpclient

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDContext(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithRequestID(context.Background(), "abc-123")
	id, ok := RequestIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc-123", id)
	assert.Equal(t, "abc-123", EnsureRequestID(ctx))

	_, ok = RequestIDFromContext(WithRequestID(context.Background(), ""))
	assert.False(t, ok)
}

func TestEnsureRequestIDGeneratesUUID(t *testing.T) {
	first := EnsureRequestID(context.Background())
	second := EnsureRequestID(context.Background())

	_, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestRequestIDInterceptor(t *testing.T) {
	t.Run("sets missing header from context", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "ctx-id")
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.com", http.NoBody)
		require.NoError(t, err)

		require.NoError(t, NewRequestIDInterceptor("")(ctx, req))
		assert.Equal(t, "ctx-id", req.Header.Get(HeaderXRequestID))
	})

	t.Run("keeps existing header", func(t *testing.T) {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com", http.NoBody)
		require.NoError(t, err)
		req.Header.Set("X-Correlation-ID", "preset")

		require.NoError(t, NewRequestIDInterceptor("X-Correlation-ID")(context.Background(), req))
		assert.Equal(t, "preset", req.Header.Get("X-Correlation-ID"))
	})
}
