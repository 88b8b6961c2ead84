package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MeKo-Tech/droste/internal/droste"
	"github.com/MeKo-Tech/droste/internal/homography"
	"github.com/MeKo-Tech/droste/internal/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_HealthHandler(t *testing.T) {
	server := newTestServer(t, 0)

	tests := []struct {
		name           string
		method         string
		expectedStatus int
	}{
		{"GET request success", http.MethodGet, http.StatusOK},
		{"POST request not allowed", http.MethodPost, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/health", nil)
			w := httptest.NewRecorder()
			server.healthHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var response HealthResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, "healthy", response.Status)
				assert.NotEmpty(t, response.Time)
				assert.NotEmpty(t, response.Version)
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestServer_HomographyHandler(t *testing.T) {
	server := newTestServer(t, 0)

	t.Run("absolute points", func(t *testing.T) {
		w := postJSON(t, http.HandlerFunc(server.homographyHandler), "/v1/homography",
			HomographyRequest{Width: 100, Height: 100, Points: []float64{20, 20, 80, 20, 20, 80, 80, 80}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp HomographyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		want := matrix.Mat3{0.6, 0, 20, 0, 0.6, 20, 0, 0, 1}
		for i := range want {
			assert.InDelta(t, want[i], resp.Matrix3x3[i], 1e-9, "index %d", i)
		}
		assert.InDelta(t, 20.0, resp.Matrix4x4[12], 1e-9)
		assert.True(t, strings.HasPrefix(resp.CSS, "matrix3d("))
	})

	t.Run("relative points", func(t *testing.T) {
		w := postJSON(t, http.HandlerFunc(server.homographyHandler), "/v1/homography",
			HomographyRequest{Width: 100, Height: 100, Points: insetPoints[:], Relative: true})
		require.Equal(t, http.StatusOK, w.Code)

		var resp HomographyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.InDelta(t, 0.6, resp.Matrix3x3[0], 1e-9)
	})

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantType   string
	}{
		{
			name:       "collinear points",
			body:       HomographyRequest{Width: 100, Height: 100, Points: []float64{0, 0, 50, 50, 100, 100, 0, 100}},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   errTypeDegenerate,
		},
		{
			name:       "too few points",
			body:       HomographyRequest{Width: 100, Height: 100, Points: []float64{0, 0, 1, 1}},
			wantStatus: http.StatusBadRequest,
			wantType:   errTypeInvalidRequest,
		},
		{
			name:       "zero canvas",
			body:       HomographyRequest{Width: 0, Height: 100, Points: []float64{20, 20, 80, 20, 20, 80, 80, 80}},
			wantStatus: http.StatusBadRequest,
			wantType:   errTypeInvalidCanvas,
		},
		{
			name:       "malformed body",
			body:       "not an object",
			wantStatus: http.StatusBadRequest,
			wantType:   errTypeInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, http.HandlerFunc(server.homographyHandler), "/v1/homography", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantType, decodeError(t, w).ErrorType)
		})
	}

	t.Run("method not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.homographyHandler(w, httptest.NewRequest(http.MethodGet, "/v1/homography", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestServer_StackHandler(t *testing.T) {
	server := newTestServer(t, 0)
	handler := http.HandlerFunc(server.stackHandler)
	points := []float64{20, 20, 80, 20, 20, 80, 80, 80}

	t.Run("explicit depth", func(t *testing.T) {
		w := postJSON(t, handler, "/v1/stack", StackRequest{
			HomographyRequest: HomographyRequest{Width: 100, Height: 100, Points: points},
			Depth:             16,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp StackResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 16, resp.Depth)
		assert.Len(t, resp.Matrices, 16)
		assert.Len(t, resp.CSS, 16)
		assert.False(t, resp.Expensive)
		assert.Equal(t, matrix.Identity4(), resp.Matrices[0])
		// Level 2 is the base applied twice: scale 0.36, offset 20 + 0.6*20.
		assert.InDelta(t, 0.36, resp.Matrices[2][0], 1e-9)
		assert.InDelta(t, 32.0, resp.Matrices[2][12], 1e-9)
	})

	t.Run("default depth", func(t *testing.T) {
		w := postJSON(t, handler, "/v1/stack", StackRequest{
			HomographyRequest: HomographyRequest{Width: 100, Height: 100, Points: points},
		})
		require.Equal(t, http.StatusOK, w.Code)
		var resp StackResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 8, resp.Depth)
	})

	t.Run("expensive depth flagged", func(t *testing.T) {
		w := postJSON(t, handler, "/v1/stack", StackRequest{
			HomographyRequest: HomographyRequest{Width: 100, Height: 100, Points: points},
			Depth:             droste.ExpensiveDepth,
		})
		require.Equal(t, http.StatusOK, w.Code)
		var resp StackResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Expensive)
	})

	t.Run("overflowing stack", func(t *testing.T) {
		w := postJSON(t, handler, "/v1/stack", StackRequest{
			HomographyRequest: HomographyRequest{
				Width: 100, Height: 100,
				Points: []float64{-1000, -1000, 1100, -1000, -1000, 1100, 1100, 1100},
			},
			Depth: droste.ExpensiveDepth,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, errTypeStackOverflow, decodeError(t, w).ErrorType)
	})

	t.Run("invalid depth", func(t *testing.T) {
		w := postJSON(t, handler, "/v1/stack", StackRequest{
			HomographyRequest: HomographyRequest{Width: 100, Height: 100, Points: points},
			Depth:             7,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errTypeInvalidDepth, decodeError(t, w).ErrorType)
	})
}

func TestWriteJSON_EncodeFailureIs500(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]float64{"v": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, errTypeInternal, decodeError(t, w).ErrorType)
}

func TestServer_DepthsHandler(t *testing.T) {
	server := newTestServer(t, 0)
	w := httptest.NewRecorder()
	server.depthsHandler(w, httptest.NewRequest(http.MethodGet, "/v1/depths", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp DepthsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, droste.AllowedDepths, resp.Depths)
	assert.Equal(t, 8, resp.Default)
	assert.Equal(t, droste.ExpensiveDepth, resp.Expensive)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantType   string
	}{
		{fmt.Errorf("x: %w", homography.ErrDegenerateQuadrilateral), http.StatusUnprocessableEntity, errTypeDegenerate},
		{fmt.Errorf("x: %w", matrix.ErrSingularMatrix), http.StatusUnprocessableEntity, errTypeSingular},
		{fmt.Errorf("x: %w", droste.ErrInvalidDepth), http.StatusBadRequest, errTypeInvalidDepth},
		{fmt.Errorf("x: %w", droste.ErrStackOverflow), http.StatusUnprocessableEntity, errTypeStackOverflow},
		{homography.ErrInvalidCanvas, http.StatusBadRequest, errTypeInvalidCanvas},
		{errors.New("boom"), http.StatusInternalServerError, errTypeInternal},
	}
	for _, tt := range tests {
		status, errType := classifyError(tt.err)
		assert.Equal(t, tt.wantStatus, status, tt.err.Error())
		assert.Equal(t, tt.wantType, errType, tt.err.Error())
	}
}

func TestSetupRoutes_Metrics(t *testing.T) {
	mux := newTestMux(t, newTestServer(t, 0))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "droste_http_requests_total")
}

func TestNewServer_InvalidCanvas(t *testing.T) {
	_, err := NewServer(Config{Scene: SceneDefaults{Width: 0, Height: 10}})
	assert.Error(t, err)
}
