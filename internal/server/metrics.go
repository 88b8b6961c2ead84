package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// serverMetrics groups the collectors exported on /metrics.
type serverMetrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	composes        *prometheus.CounterVec
	composeDuration *prometheus.HistogramVec
	stackDepth      prometheus.Histogram
	rateLimited     prometheus.Counter
	wsConnections   prometheus.Gauge
	wsMessages      *prometheus.CounterVec
	frames          prometheus.Counter
}

var metrics = newServerMetrics(prometheus.DefaultRegisterer)

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	f := promauto.With(reg)
	return &serverMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "droste_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "droste_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		composes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "droste_compose_requests_total",
			Help: "Homography and stack computations by source and outcome.",
		}, []string{"source", "status"}),
		composeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "droste_compose_duration_seconds",
			Help:    "Time to compute a homography or stack.",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"source"}),
		stackDepth: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "droste_stack_depth",
			Help:    "Depth of composed stacks.",
			Buckets: []float64{2, 8, 16, 32, 72, 128, 256},
		}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "droste_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		wsConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "droste_websocket_active_connections",
			Help: "Open WebSocket sessions.",
		}),
		wsMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "droste_websocket_messages_total",
			Help: "WebSocket messages by direction (sent, received).",
		}, []string{"direction"}),
		frames: f.NewCounter(prometheus.CounterOpts{
			Name: "droste_animation_frames_total",
			Help: "Animation frames streamed to clients.",
		}),
	}
}

// observeCompose records one computation started at start.
func (m *serverMetrics) observeCompose(source string, start time.Time, err error) {
	m.composeDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	m.composes.WithLabelValues(source, status).Inc()
}

func (m *serverMetrics) observeRequest(method, route string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
