// Package router wires the QA routes and applies the middleware chain.
package router

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/analytics"
	anshandler "github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/handler"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/auth/ratelimit"
	gwmw "github.com/Adithya-Monish-Kumar-K/ragqa/internal/gateway/middleware"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/ragqa/pkg/middleware"
)

// Deps are the handlers and guards the router needs. Metrics and Health
// may be nil.
type Deps struct {
	Answers        *anshandler.Handler
	LatencyMetrics *analytics.Handler
	Health         *health.Checker
	Guard          *apikey.Guard
	Limiter        *ratelimit.Limiter
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	CORSOrigins    []string
}

// New builds the HTTP handler with all routes and middleware.
//
// Route table:
//
//	POST   /ask                  → answer a question
//	GET    /metrics              → latency snapshot (JSON)
//	GET    /metrics/prometheus   → Prometheus scrape
//	GET    /health               → {ok, version}
//	GET    /health/live          → liveness
//	GET    /health/ready         → readiness (index, cache)
//	GET    /version              → {version}
//	GET    /cache/stats          → answer cache counters
//	POST   /cache/invalidate     → drop cached answers
//
// Middleware chain (outermost first):
//
//	RequestID → Metrics → CORS → Auth → RateLimit → Timeout → mux
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /ask", d.Answers.Ask)
	mux.HandleFunc("GET /health", d.Answers.Health)
	mux.HandleFunc("GET /version", d.Answers.Version)
	mux.HandleFunc("GET /metrics", d.LatencyMetrics.Metrics)
	mux.Handle("GET /metrics/prometheus", metrics.Handler())

	if d.Health != nil {
		mux.HandleFunc("GET /health/live", d.Health.LiveHandler())
		mux.HandleFunc("GET /health/ready", d.Health.ReadyHandler())
	}

	mux.HandleFunc("GET /cache/stats", d.Answers.CacheStats)
	mux.HandleFunc("POST /cache/invalidate", d.Answers.CacheInvalidate)

	var chain http.Handler = mux
	chain = pkgmw.Timeout(d.RequestTimeout)(chain)
	chain = gwmw.RateLimit(d.Limiter, d.Metrics)(chain)
	chain = gwmw.Auth(d.Guard)(chain)
	chain = gwmw.CORS(d.CORSOrigins)(chain)
	if d.Metrics != nil {
		chain = pkgmw.Metrics(d.Metrics)(chain)
	}
	chain = pkgmw.RequestID(chain)

	return chain
}
