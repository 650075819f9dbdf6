package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels of the product API. Routes outside the table are labeled
// by their chi pattern.
const (
	OpList       = "list"
	OpSearch     = "search"
	OpProduct    = "product"
	OpInvalidate = "invalidate"
	OpHealth     = "health"
	OpMetrics    = "metrics"
	OpUnmatched  = "unmatched"
)

var routeOps = map[string]string{
	"/api/products":               OpList,
	"/api/products/search":        OpSearch,
	"/api/products/{id}":          OpProduct,
	"/api/admin/cache/invalidate": OpInvalidate,
	"/health":                     OpHealth,
	"/metrics":                    OpMetrics,
}

var (
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "miran",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Product API request duration in seconds by operation",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op", "status"},
	)

	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "miran",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Product API requests by method, operation and status",
		},
		[]string{"method", "op", "status"},
	)

	apiResponseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "miran",
			Subsystem: "api",
			Name:      "response_bytes",
			Help:      "Response body size in bytes by operation",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"op"},
	)

	apiInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "miran",
			Subsystem: "api",
			Name:      "in_flight_requests",
			Help:      "Product API requests being served",
		},
	)
)

func init() {
	prometheus.MustRegister(apiRequestDuration, apiRequestsTotal, apiResponseBytes, apiInFlight)
}

// Middleware records per-operation request duration, count and response size.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiInFlight.Inc()
			defer apiInFlight.Dec()
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			op := OpUnmatched
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				op = operation(rctx.RoutePattern())
			}
			status := strconv.Itoa(ww.status)

			apiRequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
			apiRequestsTotal.WithLabelValues(r.Method, op, status).Inc()
			apiResponseBytes.WithLabelValues(op).Observe(float64(ww.bytes))
		})
	}
}

// operation maps a chi route pattern to its API operation. Unmatched
// requests share one label to keep cardinality bounded.
func operation(pattern string) string {
	if pattern == "" {
		return OpUnmatched
	}
	if op, ok := routeOps[pattern]; ok {
		return op
	}
	return pattern
}

// statusWriter captures the response status code and body size.
type statusWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err //nolint:wrapcheck // delegating to underlying ResponseWriter
}
