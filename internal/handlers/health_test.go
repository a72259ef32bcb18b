package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okCheck(context.Context) error { return nil }

func failCheck(context.Context) error { return errors.New("connection refused") }

func hangCheck(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// serveReady runs Ready and decodes the body.
func serveReady(t *testing.T, h *HealthHandler) (int, ReadyResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	_, err := time.Parse(time.RFC3339, body.Timestamp)
	require.NoError(t, err, "timestamp must be RFC 3339")
	return rec.Code, body
}

func TestHealth_AlwaysHealthy(t *testing.T) {
	h := NewHealthHandler()
	h.SetReady(false)
	h.AddCheck("database", failCheck)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Len(t, body, 2)
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		notReady   bool
		checks     map[string]CheckFunc
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "no checks",
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:       "draining",
			notReady:   true,
			checks:     map[string]CheckFunc{"database": okCheck},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not ready",
			wantChecks: map[string]string{"database": "ok"},
		},
		{
			name:       "all checks pass",
			checks:     map[string]CheckFunc{"database": okCheck, "redis": okCheck},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
			wantChecks: map[string]string{"database": "ok", "redis": "ok"},
		},
		{
			name:       "one check fails",
			checks:     map[string]CheckFunc{"database": failCheck, "rate_limiter": okCheck},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not ready",
			wantChecks: map[string]string{"database": "fail", "rate_limiter": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler()
			h.SetReady(!tt.notReady)
			for name, check := range tt.checks {
				h.AddCheck(name, check)
			}

			code, body := serveReady(t, h)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantChecks, body.Checks)
		})
	}
}

func TestReady_ReplacingCheck(t *testing.T) {
	h := NewHealthHandler()
	h.AddCheck("database", failCheck)
	h.AddCheck("database", okCheck)

	code, body := serveReady(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{"database": "ok"}, body.Checks)
}

func TestReady_SlowCheckTimesOut(t *testing.T) {
	h := NewHealthHandler()
	h.SetCheckTimeout(20 * time.Millisecond)
	h.SetCheckTimeout(0)
	h.AddCheck("redis", hangCheck)
	h.AddCheck("other_redis", hangCheck)

	start := time.Now()
	code, body := serveReady(t, h)

	assert.Less(t, time.Since(start), 500*time.Millisecond, "checks run concurrently under the timeout")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, map[string]string{"redis": "fail", "other_redis": "fail"}, body.Checks)
}

func TestHealthHandler_ReadyToggle(t *testing.T) {
	h := NewHealthHandler()
	for _, want := range []bool{true, false, true} {
		h.SetReady(want)
		assert.Equal(t, want, h.IsReady())
	}
}
