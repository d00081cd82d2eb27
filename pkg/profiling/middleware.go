package profiling

import (
	"net/http"
	"strconv"
	"time"
)

// Middleware records request duration per handler into the metrics set.
type Middleware struct {
	metrics *Metrics
}

// NewMiddleware creates a new instrumentation middleware. A nil metrics set
// disables instrumentation.
func NewMiddleware(metrics *Metrics) *Middleware {
	return &Middleware{metrics: metrics}
}

// Instrument wraps an HTTP handler and observes its duration and status.
func (m *Middleware) Instrument(name string, handler http.Handler) http.Handler {
	if m == nil || m.metrics == nil {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler.ServeHTTP(wrapped, r)

		m.metrics.RequestDuration.
			WithLabelValues(name, strconv.Itoa(wrapped.statusCode)).
			Observe(time.Since(start).Seconds())
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController and the websocket upgrader reach the
// underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
