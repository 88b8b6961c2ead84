package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/droste/internal/droste"
	"github.com/MeKo-Tech/droste/internal/homography"
	"github.com/MeKo-Tech/droste/internal/matrix"
	"github.com/MeKo-Tech/droste/internal/utils"
	"github.com/MeKo-Tech/droste/internal/version"
)

const maxBodyBytes = 64 << 10

// Error types reported to clients.
const (
	errTypeInvalidRequest = "invalid_request"
	errTypeDegenerate     = "degenerate_quadrilateral"
	errTypeSingular       = "singular_matrix"
	errTypeInvalidDepth   = "invalid_depth"
	errTypeInvalidCanvas  = "invalid_canvas"
	errTypeStackOverflow  = "stack_overflow"
	errTypeInternal       = "internal_error"
)

var errBadPoints = errors.New("points must hold 8 numbers: x0,y0,x1,y1,x2,y2,x3,y3")

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Get().Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// depthsHandler lists the accepted recursion depths.
func (s *Server) depthsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, DepthsResponse{
		Depths:    droste.AllowedDepths,
		Default:   s.scene.Depth,
		Expensive: droste.ExpensiveDepth,
	})
}

// homographyHandler computes the base transform for one quad.
func (s *Server) homographyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req HomographyRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	quad, err := req.quad()
	if err != nil {
		writeError(w, http.StatusBadRequest, errTypeInvalidRequest, err.Error())
		return
	}

	start := time.Now()
	t, err := homography.Compute3(req.Width, req.Height, quad)
	metrics.observeCompose("homography", start, err)
	if err != nil {
		s.writeComputeError(w, err)
		return
	}

	m := matrix.Promote(t)
	writeJSON(w, http.StatusOK, HomographyResponse{Matrix3x3: t, Matrix4x4: m, CSS: m.CSS()})
}

// stackHandler composes the full transform stack.
func (s *Server) stackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req StackRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Depth == 0 {
		req.Depth = s.scene.Depth
	}
	quad, err := req.quad()
	if err != nil {
		writeError(w, http.StatusBadRequest, errTypeInvalidRequest, err.Error())
		return
	}

	start := time.Now()
	res, err := s.composer.Compose(droste.Request{Width: req.Width, Height: req.Height, Quad: quad, Depth: req.Depth})
	metrics.observeCompose("stack", start, err)
	if err != nil {
		s.writeComputeError(w, err)
		return
	}
	metrics.stackDepth.Observe(float64(req.Depth))

	writeJSON(w, http.StatusOK, newStackResponse(res.Stack))
}

func newStackResponse(stack droste.Stack) StackResponse {
	return StackResponse{
		Depth:     len(stack),
		Expensive: droste.IsExpensive(len(stack)),
		Matrices:  stack,
		CSS:       stack.CSS(),
	}
}

func (req HomographyRequest) quad() (homography.Quad, error) {
	if len(req.Points) != 8 {
		return homography.Quad{}, errBadPoints
	}
	var flat [8]float64
	copy(flat[:], req.Points)
	if req.Relative {
		return homography.QuadFromRelative(req.Width, req.Height, flat), nil
	}
	var q homography.Quad
	for i := range q {
		q[i] = utils.Point{X: flat[2*i], Y: flat[2*i+1]}
	}
	return q, nil
}

// classifyError maps the computation error taxonomy to a status and error type.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, homography.ErrDegenerateQuadrilateral):
		return http.StatusUnprocessableEntity, errTypeDegenerate
	case errors.Is(err, matrix.ErrSingularMatrix):
		return http.StatusUnprocessableEntity, errTypeSingular
	case errors.Is(err, droste.ErrStackOverflow):
		return http.StatusUnprocessableEntity, errTypeStackOverflow
	case errors.Is(err, droste.ErrInvalidDepth):
		return http.StatusBadRequest, errTypeInvalidDepth
	case errors.Is(err, homography.ErrInvalidCanvas):
		return http.StatusBadRequest, errTypeInvalidCanvas
	default:
		return http.StatusInternalServerError, errTypeInternal
	}
}

func (s *Server) writeComputeError(w http.ResponseWriter, err error) {
	status, errType := classifyError(err)
	if status == http.StatusInternalServerError {
		slog.Error("Computation failed", "error", err)
	}
	writeError(w, status, errType, err.Error())
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, errTypeInvalidRequest, fmt.Sprintf("Failed to parse request: %v", err))
		return false
	}
	return true
}

// writeJSON encodes v before touching the header so an encoding failure
// still reaches the client as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response","error_type":"` + errTypeInternal + `"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, ErrorType: errType})
}
