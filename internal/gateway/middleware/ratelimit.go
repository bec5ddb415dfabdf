package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/metrics"
)

// RateLimit returns middleware that spends one token from the bucket of
// the presented API key, or the anonymous bucket when no key was sent. It
// must run after Auth. m may be nil.
func RateLimit(limiter *ratelimit.Limiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := GetAPIKey(r.Context())
			if key == "" {
				key = extractAPIKey(r)
			}
			if !limiter.Allow(key) {
				if m != nil {
					m.RateLimitRejections.Inc()
				}
				wait := limiter.RetryAfter(key).Seconds()
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Max(1, math.Ceil(wait)))))
				logger.FromContext(r.Context()).Info("request rejected", "reason", "rate_limited", "path", r.URL.Path)
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
