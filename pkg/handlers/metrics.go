// Prometheus instrumentation. The collectors register on the default
// registry; cmd/web mounts promhttp.Handler at /metrics.

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musicmate_http_requests_total",
		Help: "HTTP requests processed, labelled by path and status.",
	}, []string{"path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "musicmate_http_request_duration_seconds",
		Help:    "HTTP request latency. Recommendation flows sit on slow upstream chains, hence the wide buckets.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"path"})

	recommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musicmate_recommendations_total",
		Help: "Recommendation flow invocations by flow and outcome.",
	}, []string{"flow", "outcome"})
)

// observeFlow records one pipeline invocation.
func observeFlow(flow string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	recommendationsTotal.WithLabelValues(flow, outcome).Inc()
}

// statusRecorder captures the status code written by the wrapped
// handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Metrics wraps a handler with request counting and latency
// measurement.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		requestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
