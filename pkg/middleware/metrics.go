// Package middleware holds the service-wide HTTP middleware: request IDs,
// Prometheus instrumentation and per-request deadlines.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/metrics"
)

// routes are the only values the path label takes; anything else is
// counted as "other" so scanners cannot blow up label cardinality.
var routes = []string{
	"/ask",
	"/metrics",
	"/metrics/prometheus",
	"/health",
	"/health/live",
	"/health/ready",
	"/version",
	"/cache/stats",
	"/cache/invalidate",
}

// Metrics counts requests by method, route and status, observes their
// duration, and tracks how many are in flight.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		counted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			route := routeLabel(r.URL.Path)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.code())).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
		return promhttp.InstrumentHandlerInFlight(m.HTTPRequestsInFlight, counted)
	}
}

func routeLabel(path string) string {
	for _, r := range routes {
		if r == path {
			return path
		}
	}
	return "other"
}

// statusRecorder remembers the first status written. A handler that only
// calls Write gets an implicit 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

func (s *statusRecorder) code() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
