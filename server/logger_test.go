package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/reqengine/config"
	"github.com/gaborage/reqengine/logger"
)

func TestDetermineSeverity(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		latency   time.Duration
		threshold time.Duration
		err       error
		wantLevel string
		wantCode  string
	}{
		{"ok", 200, time.Millisecond, time.Second, nil, "info", "INFO"},
		{"slow", 200, 2 * time.Second, time.Second, nil, "info", "WARN"},
		{"slow check disabled", 200, time.Hour, 0, nil, "info", "INFO"},
		{"client error", 404, time.Millisecond, time.Second, nil, "warn", "WARN"},
		{"client closed", StatusClientClosedRequest, time.Millisecond, time.Second, nil, "warn", "WARN"},
		{"bad gateway", 502, time.Millisecond, time.Second, nil, "error", "ERROR"},
		{"error without status", 0, time.Millisecond, time.Second, errors.New("boom"), "error", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, code := determineSeverity(tt.status, tt.latency, tt.threshold, tt.err)
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestCreateActionMessage(t *testing.T) {
	assert.Equal(t, "POST /v1/requests completed in 12ms with status 5xx",
		createActionMessage(http.MethodPost, PathRequests, 12*time.Millisecond, 502))
	assert.Equal(t, "GET /v1/handlers completed in 1s with status 2xx",
		createActionMessage(http.MethodGet, PathHandlers, time.Second, 200))
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug")
	s, err := New(testConfig(config.EnvDevelopment), newTestEngine(), log)
	require.NoError(t, err)

	serve := func(method, path, body string) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		s.Echo().ServeHTTP(httptest.NewRecorder(), req)
	}

	serve(http.MethodGet, PathHealth, "")
	serve(http.MethodPost, PathRequests, `{"description":{"type":"BROKEN"},"max_attempts":1}`)

	var summary map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.NotEqual(t, PathHealth, entry["url.path"], "health probes are not logged")
		if entry["http.route"] == PathRequests {
			summary = entry
		}
	}

	require.NotNil(t, summary, "missing request summary in %s", buf.String())
	assert.Equal(t, "error", summary["level"])
	assert.EqualValues(t, http.StatusBadGateway, summary["http.response.status_code"])
	assert.Equal(t, "ERROR", summary["result_code"])
	assert.NotEmpty(t, summary["request_id"])
	assert.Equal(t, http.MethodPost, summary["http.request.method"])
}

func TestLoggerRendersHandlerErrors(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(testConfig(config.EnvDevelopment), newTestEngine(), logger.NewWithWriter(&buf, "info"))
	require.NoError(t, err)
	s.Echo().GET("/boom", func(echo.Context) error {
		return errors.New("kaput")
	})

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil).WithContext(context.Background()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, rec.Body.String(), "kaput")
	assert.Contains(t, buf.String(), `"http.response.status_code":500`)
}
