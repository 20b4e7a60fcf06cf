package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.99: 0.001,
			},
		},
		[]string{"method", "path", "status_code"},
	)

	llmCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_calls_total",
			Help: "LLM provider calls by operation and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)
	llmDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "LLM provider call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider", "operation"},
	)

	extractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf_extractions_total",
			Help: "PDF extraction attempts by outcome",
		},
		[]string{"outcome"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Worker notification messages by outcome",
		},
		[]string{"outcome"},
	)

	panics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_panics_total",
			Help: "Handler panics recovered by route",
		},
		[]string{"path"},
	)
)

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ObserveLLMCall records one provider call.
func ObserveLLMCall(provider, operation, outcome string, elapsed time.Duration) {
	llmCalls.WithLabelValues(provider, operation, outcome).Inc()
	llmDuration.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}

// IncExtraction records a PDF extraction outcome such as "ok" or "too_short".
func IncExtraction(outcome string) {
	extractions.WithLabelValues(outcome).Inc()
}

// IncNotification records a worker message outcome.
func IncNotification(outcome string) {
	notifications.WithLabelValues(outcome).Inc()
}

// IncPanic records a recovered handler panic.
func IncPanic(path string) {
	if path == "" {
		path = "unmatched"
	}
	panics.WithLabelValues(path).Inc()
}
