package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/MeKo-Tech/droste/internal/animation"
	"github.com/MeKo-Tech/droste/internal/droste"
	"github.com/MeKo-Tech/droste/internal/matrix"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	composer      *droste.Composer
	corsOrigin    string
	frameInterval time.Duration
	animationStep float64
	initialMode   animation.Mode
	scene         SceneDefaults
	rateLimiter   *RateLimiter
}

// SceneDefaults seeds every new WebSocket session.
type SceneDefaults struct {
	Width  int
	Height int
	Points [8]float64 // relative to the canvas
	Depth  int
}

// Config holds server configuration.
type Config struct {
	Host              string
	Port              int
	CORSOrigin        string
	FrameInterval     time.Duration
	AnimationStep     float64
	InitialMode       animation.Mode // mode of every new session
	StackCacheSize    int
	RequestsPerMinute int // 0 disables rate limiting
	Scene             SceneDefaults
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// HomographyRequest is the body of POST /v1/homography.
type HomographyRequest struct {
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Points   []float64 `json:"points"`
	Relative bool      `json:"relative,omitempty"`
}

// HomographyResponse carries the base transform in both layouts.
type HomographyResponse struct {
	Matrix3x3 matrix.Mat3 `json:"matrix3x3"`
	Matrix4x4 matrix.Mat4 `json:"matrix4x4"`
	CSS       string      `json:"css"`
}

// StackRequest is the body of POST /v1/stack.
type StackRequest struct {
	HomographyRequest
	Depth int `json:"depth"`
}

// StackResponse lists one matrix per nesting level.
type StackResponse struct {
	Depth     int           `json:"depth"`
	Expensive bool          `json:"expensive,omitempty"`
	Matrices  []matrix.Mat4 `json:"matrices"`
	CSS       []string      `json:"css"`
}

// DepthsResponse is returned by /v1/depths.
type DepthsResponse struct {
	Depths    []int `json:"depths"`
	Default   int   `json:"default"`
	Expensive int   `json:"expensive"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// NewServer creates a server with its own stack cache.
func NewServer(config Config) (*Server, error) {
	composer, err := droste.NewComposer(config.StackCacheSize)
	if err != nil {
		return nil, err
	}
	if config.Scene.Width <= 0 || config.Scene.Height <= 0 {
		return nil, fmt.Errorf("invalid default canvas %dx%d", config.Scene.Width, config.Scene.Height)
	}
	if config.Scene.Depth == 0 {
		config.Scene.Depth = droste.DefaultDepth
	}
	if config.AnimationStep <= 0 {
		config.AnimationStep = animation.SmoothStep
	}
	if config.FrameInterval <= 0 {
		config.FrameInterval = animation.DefaultFrameInterval
	}

	s := &Server{
		composer:      composer,
		corsOrigin:    config.CORSOrigin,
		frameInterval: config.FrameInterval,
		animationStep: config.AnimationStep,
		initialMode:   config.InitialMode,
		scene:         config.Scene,
	}
	if config.RequestsPerMinute > 0 {
		s.rateLimiter = NewRateLimiter(config.RequestsPerMinute)
	}
	return s, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.instrument("/health", s.withCORS(s.healthHandler)))
	mux.HandleFunc("/v1/homography", s.instrument("/v1/homography", s.withCORS(s.withRateLimit(s.homographyHandler))))
	mux.HandleFunc("/v1/stack", s.instrument("/v1/stack", s.withCORS(s.withRateLimit(s.stackHandler))))
	mux.HandleFunc("/v1/depths", s.instrument("/v1/depths", s.withCORS(s.depthsHandler)))
	mux.HandleFunc("/ws", s.withRateLimit(s.webSocketHandler))
	mux.Handle("/metrics", promhttp.Handler())
}
