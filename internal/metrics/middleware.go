// Package metrics provides Prometheus metrics for the dev server.
// It tracks HTTP traffic, upstream extraction calls, token usage and failures.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vaultid"

// LatencyBuckets covers static file hits up to the 90s upstream timeout.
var LatencyBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 90, 120}

var (
	// HTTPRequestsTotal counts served requests by route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests served",
		},
		[]string{"route", "status"},
	)

	// HTTPRequestLatency tracks end-to-end handler latency by route pattern.
	HTTPRequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_latency_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   LatencyBuckets,
		},
		[]string{"route"},
	)

	// UpstreamRequestsTotal counts upstream chat-completion calls by status.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total upstream chat-completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	// UpstreamLatency tracks upstream call latency.
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_latency_seconds",
			Help:      "Upstream chat-completion latency in seconds",
			Buckets:   LatencyBuckets,
		},
		[]string{"provider", "model"},
	)

	// UpstreamErrors counts failed extractions by error type.
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extract_errors_total",
			Help:      "Total failed extractions by error type",
		},
		[]string{"provider", "error_type"},
	)

	// TokenUsage tracks token consumption by type.
	TokenUsage = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_usage_total",
			Help:      "Total token usage reported by the upstream",
		},
		[]string{"provider", "model", "type"}, // type: input, output
	)
)

// RecordUpstream records one upstream call.
func RecordUpstream(provider, model string, statusCode int, latency time.Duration) {
	model = sanitizeModelLabel(model)
	UpstreamRequestsTotal.WithLabelValues(provider, model, strconv.Itoa(statusCode)).Inc()
	UpstreamLatency.WithLabelValues(provider, model).Observe(latency.Seconds())
}

// RecordTokens records token usage metrics.
func RecordTokens(provider, model string, inputTokens, outputTokens int) {
	model = sanitizeModelLabel(model)
	if inputTokens > 0 {
		TokenUsage.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		TokenUsage.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

// RecordError records a failed extraction.
func RecordError(provider, errorType string) {
	UpstreamErrors.WithLabelValues(provider, errorType).Inc()
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.statusCode = code
		r.written = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.written = true
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware records request count and latency per route pattern.
// It must wrap the ServeMux directly so the matched pattern is visible afterwards.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(recorder, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.statusCode)).Inc()
		HTTPRequestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

const maxModelLabelLen = 64

func sanitizeModelLabel(model string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return "unknown"
	}

	var b strings.Builder
	for _, r := range model {
		if (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '-' || r == '_' || r == '.' || r == ':' || r == '/' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		if b.Len() >= maxModelLabelLen {
			break
		}
	}

	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "unknown"
	}
	return out
}
