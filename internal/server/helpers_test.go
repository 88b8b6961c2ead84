package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var insetPoints = [8]float64{0.2, 0.2, 0.8, 0.2, 0.2, 0.8, 0.8, 0.8}

func newTestServer(t *testing.T, requestsPerMinute int) *Server {
	t.Helper()
	s, err := NewServer(Config{
		CORSOrigin:        "*",
		FrameInterval:     5 * time.Millisecond,
		AnimationStep:     0.1,
		StackCacheSize:    8,
		RequestsPerMinute: requestsPerMinute,
		Scene:             SceneDefaults{Width: 100, Height: 100, Points: insetPoints, Depth: 8},
	})
	require.NoError(t, err)
	return s
}

func newTestMux(t *testing.T, s *Server) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
