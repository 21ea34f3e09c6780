// Package observability carries the gcdserver metrics and the business event
// audit log.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gcdserver Prometheus collectors.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	snapshots   *prometheus.CounterVec
	resolvedCal prometheus.Histogram
}

// NewMetrics creates and registers the collectors on reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gcd_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gcd_http_request_duration_seconds",
			Help:    "HTTP request duration by route pattern.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"route"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gcd_snapshots_generated_total",
			Help: "GCD snapshot generations by outcome.",
		}, []string{"outcome"}),
		resolvedCal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gcd_snapshot_resolved_calibrations",
			Help:    "Resolved calibration count per generated snapshot.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.snapshots, m.resolvedCal)
	return m
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SnapshotGenerated records a snapshot generation outcome ("ok" or "error")
// and, on success, the size of the resolved calibration set.
func (m *Metrics) SnapshotGenerated(outcome string, resolved int) {
	m.snapshots.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.resolvedCal.Observe(float64(resolved))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware instruments every request with the counter and duration
// histogram. The route label is the chi route pattern, not the raw URL, to
// keep label cardinality bounded.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.ObserveRequest(r.Method, route, rec.code, time.Since(start))
	})
}
