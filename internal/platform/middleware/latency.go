package middleware

import (
	"net/http"
	"strconv"
	"time"

	"stockroom/internal/platform/metrics"
)

// Latency observes request duration and in-flight count. Nil metrics turns
// the middleware into a pass-through so tests don't need a registry.
func Latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			status := strconv.Itoa(rec.status/100) + "xx"
			m.RequestDuration.WithLabelValues(r.Method, status).Observe(time.Since(start).Seconds())
		})
	}
}
