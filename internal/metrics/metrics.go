// Package metrics exposes Prometheus instrumentation for the HTTP API and
// the scheduling domain.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by method, path, and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labscheduler_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration observes HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labscheduler_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ActiveRequests tracks in-flight HTTP requests.
	ActiveRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "labscheduler_http_active_requests",
		Help: "Number of HTTP requests currently being served.",
	})

	// CascadeCancellationsTotal counts reservations displaced by
	// higher-priority events.
	CascadeCancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labscheduler_cascade_cancellations_total",
			Help: "Total reservations cancelled by priority cascades, by kind.",
		},
		[]string{"kind"},
	)

	// SlotConflictsTotal counts booking, event, and reschedule attempts
	// rejected because the slot was taken.
	SlotConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labscheduler_slot_conflicts_total",
		Help: "Total write attempts rejected due to conflicting reservations.",
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Middleware records request counts, latency, and in-flight gauge for every
// request passing through it.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ActiveRequests.Inc()
		defer ActiveRequests.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		// Raw paths contain resource ids; collapse them so the label
		// cardinality stays bounded.
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		RequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case path == "/zones" || path == "/bookings" || path == "/events" || path == "/healthz" || path == "/metrics":
		return path
	case hasPrefixSegment(path, "/zones/"):
		return collapseID(path, "/zones/")
	case hasPrefixSegment(path, "/events/"):
		return collapseID(path, "/events/")
	case hasPrefixSegment(path, "/reservations/"):
		return collapseID(path, "/reservations/")
	default:
		return "other"
	}
}

func hasPrefixSegment(path, prefix string) bool {
	return len(path) > len(prefix) && path[:len(prefix)] == prefix
}

// collapseID replaces the id segment after prefix with a placeholder, keeping
// any trailing subresource.
func collapseID(path, prefix string) string {
	rest := path[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			return prefix + "{id}" + rest[i:]
		}
	}
	return prefix + "{id}"
}
