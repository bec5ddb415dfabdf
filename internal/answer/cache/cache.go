// Package cache stores answers in Redis keyed by lowercased question and k.
// Identical concurrent misses are collapsed with singleflight, and all
// Redis calls go through a circuit breaker. Any cache failure degrades to a
// miss.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/pipeline"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/ragqa/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/resilience"
)

const keyPrefix = "ask:"

// Store is the subset of the Redis client used by the cache.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// entry is the stored form of a result; it keeps the canonical flag that
// the public JSON omits.
type entry struct {
	Answer    string         `json:"answer"`
	LatencyMs float64        `json:"latency_ms"`
	Docs      []pipeline.Doc `json:"docs"`
	Canonical bool           `json:"canonical"`
}

type AnswerCache struct {
	store   Store
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a cache over store. m may be nil.
func New(store Store, ttl time.Duration, m *metrics.Metrics) *AnswerCache {
	cbCfg := resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
	if m != nil {
		cbCfg.OnStateChange = func(name string, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	}
	return &AnswerCache{
		store:   store,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreaker("answer-cache", cbCfg),
		metrics: m,
		logger:  slog.Default().With("component", "answer-cache"),
	}
}

// Get returns the cached result for question and k.
func (c *AnswerCache) Get(ctx context.Context, question string, k int) (*pipeline.Result, bool) {
	key := buildKey(question, k)

	var data string
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			// A miss is not a failure of Redis.
			return nil
		}
		return err
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	if data == "" {
		c.miss()
		return nil, false
	}

	var e entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	c.logger.Debug("cache hit", "key", key)
	return &pipeline.Result{
		Answer:    e.Answer,
		LatencyMs: e.LatencyMs,
		Docs:      e.Docs,
		Canonical: e.Canonical,
	}, true
}

// Set stores result for question and k. Failures are logged and ignored.
func (c *AnswerCache) Set(ctx context.Context, question string, k int, result *pipeline.Result) {
	key := buildKey(question, k)
	data, err := json.Marshal(entry{
		Answer:    result.Answer,
		LatencyMs: result.LatencyMs,
		Docs:      result.Docs,
		Canonical: result.Canonical,
	})
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute implements pipeline.Cache.
func (c *AnswerCache) GetOrCompute(
	ctx context.Context,
	question string,
	k int,
	compute func() (*pipeline.Result, error),
) (*pipeline.Result, bool, error) {
	if result, ok := c.Get(ctx, question, k); ok {
		return result, true, nil
	}
	key := buildKey(question, k)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, question, k, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*pipeline.Result), false, nil
}

// Invalidate deletes every cached answer. It is called after the index is
// rebuilt.
func (c *AnswerCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating answer cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *AnswerCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *AnswerCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *AnswerCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// buildKey lowercases but otherwise keeps the question verbatim. Canonical
// topics match on raw substrings, so two spellings that differ only in
// spacing may answer differently.
func buildKey(question string, k int) string {
	raw := fmt.Sprintf("%s|k=%d", strings.ToLower(question), k)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
