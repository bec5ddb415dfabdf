// Command ragserver starts the question-answering service.
//
// It loads the snippet corpus into an in-memory BM25 index, then serves
// POST /ask behind API-key auth and per-key rate limiting. Redis answer
// caching and Kafka ask events are optional and degrade to no-ops when
// their backends are unreachable.
//
// Usage:
//
//	go run ./cmd/ragserver [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/cache"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/canonical"
	anshandler "github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/handler"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/pipeline"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/gateway/router"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/index"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/retrieval"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/ragqa/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/version"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting ragserver",
		"version", version.Version,
		"port", cfg.Server.Port,
		"index_source", cfg.Index.Source,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Corpus → index → retriever. A server without an index is useless, so
	// any failure here is fatal.
	snippets, err := corpus.Load(ctx, cfg)
	if err != nil {
		slog.Error("failed to load corpus", "error", err)
		os.Exit(1)
	}
	idx, err := index.Build(snippets)
	if err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}
	retriever, err := retrieval.New(idx)
	if err != nil {
		slog.Error("failed to create retriever", "error", err)
		os.Exit(1)
	}
	slog.Info("index loaded", "snippets", idx.Len(), "vocabulary", idx.Vocabulary())

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		m.IndexedSnippets.Set(float64(idx.Len()))
	}

	checker := health.NewChecker()
	checker.Register("index", health.CountCheck("snippets", retriever.Len))

	opts := []pipeline.Option{pipeline.WithMetrics(m)}

	// Redis answer cache.
	var cacheAdmin anshandler.CacheAdmin
	if cfg.Redis.Enabled {
		rdb, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, answer cache disabled", "error", err)
		} else {
			defer rdb.Close()
			answerCache := cache.New(rdb, cfg.Redis.CacheTTL, m)
			opts = append(opts, pipeline.WithCache(answerCache))
			cacheAdmin = answerCache
			checker.Register("redis", health.PingCheck(rdb.Ping, true))
			slog.Info("answer cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	// Kafka ask events.
	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AskEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, cfg.Kafka.BufferSize)
		collector.Start(ctx)
		opts = append(opts, pipeline.WithTracker(collector))
		slog.Info("ask events enabled", "topic", cfg.Kafka.Topics.AskEvents)
	}

	canon := canonical.Default()
	if cfg.Answer.Canonical != nil {
		entries := make([]canonical.Entry, 0, len(cfg.Answer.Canonical))
		for _, e := range cfg.Answer.Canonical {
			entries = append(entries, canonical.Entry{Topic: e.Topic, Answer: e.Answer})
		}
		canon = canonical.New(entries)
	}

	recorder := analytics.NewRecorder(cfg.Metrics.WindowSize)
	answers := pipeline.New(retriever, canon, recorder, opts...)
	slog.Info("answer pipeline ready",
		"canonical_topics", len(canon.Entries()),
		"latency_window", recorder.Capacity(),
	)

	guard := apikey.NewGuard(cfg.Auth.APIKey)
	limiter := ratelimit.New(cfg.RateLimit.PerMinute,
		ratelimit.WithMaxKeys(cfg.RateLimit.MaxKeys),
		ratelimit.WithIdleTTL(cfg.RateLimit.IdleTTL),
	)

	chain := router.New(router.Deps{
		Answers:        anshandler.New(answers, cacheAdmin, version.Version, cfg.Answer.DefaultK, cfg.Answer.MaxK),
		LatencyMetrics: analytics.NewHandler(recorder, version.Version),
		Health:         checker,
		Guard:          guard,
		Limiter:        limiter,
		Metrics:        m,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
	})

	var metricsServer *metrics.Server
	if m != nil && cfg.Metrics.Port > 0 {
		metricsServer, err = metrics.StartServer(cfg.Metrics.Port)
		if err != nil {
			slog.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		slog.Error("failed to listen", "addr", server.Addr, "error", err)
		os.Exit(1)
	}

	slog.Info("ragserver listening", "addr", ln.Addr().String(), "auth_enabled", guard.Enabled())
	start := time.Now()
	if err := serve(ctx, server, ln, cfg.Server.ShutdownTimeout); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
		cancel()
	}

	// In-flight requests have drained, so nothing tracks after this.
	if collector != nil {
		collector.Close()
		slog.Info("ask events flushed", "dropped", collector.Dropped())
	}
	slog.Info("ragserver stopped", "uptime", time.Since(start).Round(time.Second))
}

// serve runs server on ln until ctx is done. It then shuts the server down
// and returns only after in-flight requests finish or timeout expires.
func serve(ctx context.Context, server *http.Server, ln net.Listener, timeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ln) }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
