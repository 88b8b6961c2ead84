package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSMiddleware(t *testing.T) {
	server := newTestServer(t, 0)
	server.corsOrigin = "https://example.com"
	called := false
	handler := server.withCORS(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("preflight", func(t *testing.T) {
		called = false
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodOptions, "/v1/stack", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.False(t, called)
		assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, "/v1/depths", nil))
		assert.True(t, called)
		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	mux := newTestMux(t, newTestServer(t, 2))
	body := HomographyRequest{Width: 100, Height: 100, Points: insetPoints[:], Relative: true}

	for range 2 {
		w := postJSON(t, mux, "/v1/homography", body)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := postJSON(t, mux, "/v1/homography", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Positive(t, retry)
	assert.Equal(t, "rate_limit_exceeded", decodeError(t, w).ErrorType)

	// Depth listing is not limited.
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/depths", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_Window(t *testing.T) {
	rl := NewRateLimiter(1)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, rl.Allow("a", now))
	err := rl.Allow("a", now.Add(10*time.Second))
	require.NotNil(t, err)
	assert.Equal(t, 50*time.Second, err.RetryAfter)
	assert.Contains(t, err.Error(), "1 requests per minute")

	assert.Nil(t, rl.Allow("b", now.Add(10*time.Second)))
	assert.Nil(t, rl.Allow("a", now.Add(time.Minute)))
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := NewRateLimiter(5)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.Allow("old", now)
	rl.Allow("new", now.Add(50*time.Second))

	assert.Equal(t, 1, rl.prune(now.Add(70*time.Second)))
	assert.Contains(t, rl.clients, "new")
	assert.NotContains(t, rl.clients, "old")
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": " 203.0.113.9 "}, "10.0.0.2:1234", "203.0.113.9"},
		{"remote addr", nil, "198.51.100.7:5555", "198.51.100.7"},
		{"remote without port", nil, "198.51.100.7", "198.51.100.7"},
		{"garbage forwarded header", map[string]string{"X-Forwarded-For": "unknown"}, "198.51.100.7:1", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientAddr(req))
		})
	}
}

func TestInstrument_RecordsStatus(t *testing.T) {
	server := newTestServer(t, 0)
	handler := server.instrument("/test", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.WriteHeader(http.StatusOK)
	})
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)

	implicit := server.instrument("/test", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	w = httptest.NewRecorder()
	implicit(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServerMetrics_ObserveCompose(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newServerMetrics(reg)
	m.observeCompose("stack", time.Now(), nil)
	m.observeCompose("stack", time.Now(), errors.New("boom"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.composes.WithLabelValues("stack", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.composes.WithLabelValues("stack", "error")), 0)
}
