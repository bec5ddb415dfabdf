// Package ratelimit implements a per-key token bucket. Each key may spend
// perMinute requests in a burst and regains them continuously over a
// minute. Buckets live in a bounded LRU so that an unbounded stream of
// distinct keys cannot grow memory without limit.
package ratelimit

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// AnonymousKey is the bucket shared by requests that present no key.
const AnonymousKey = "anon"

const (
	DefaultMaxKeys = 10000
	DefaultIdleTTL = 10 * time.Minute

	window = time.Minute
)

// bucket tracks the token state for a single key.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

type Limiter struct {
	mu       sync.Mutex
	buckets  *expirable.LRU[string, *bucket]
	capacity float64
	now      func() time.Time
}

type Option func(*options)

type options struct {
	maxKeys int
	idleTTL time.Duration
	clock   func() time.Time
}

// WithMaxKeys bounds the number of tracked buckets.
func WithMaxKeys(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxKeys = n
		}
	}
}

// WithIdleTTL sets how long an untouched bucket is kept. After a minute of
// idleness a bucket is full again, so dropping it loses nothing.
func WithIdleTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.idleTTL = d
		}
	}
}

// WithClock replaces time.Now for refill arithmetic.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// New creates a limiter allowing perMinute requests per key per minute.
// Values below 1 are raised to 1.
func New(perMinute int, opts ...Option) *Limiter {
	o := options{
		maxKeys: DefaultMaxKeys,
		idleTTL: DefaultIdleTTL,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if perMinute < 1 {
		perMinute = 1
	}

	return &Limiter{
		buckets:  expirable.NewLRU[string, *bucket](o.maxKeys, nil, o.idleTTL),
		capacity: float64(perMinute),
		now:      o.clock,
	}
}

// Allow reports whether key may make a request now, consuming one token
// if so. A key seen for the first time starts with a full bucket.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		key = AnonymousKey
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets.Get(key)
	if !ok {
		b = &bucket{tokens: l.capacity, lastRefill: now}
	} else {
		elapsed := now.Sub(b.lastRefill)
		if elapsed > 0 {
			b.tokens += elapsed.Seconds() * l.capacity / window.Seconds()
			if b.tokens > l.capacity {
				b.tokens = l.capacity
			}
		}
		b.lastRefill = now
	}
	// Re-adding refreshes both recency and the idle TTL.
	l.buckets.Add(key, b)

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter returns how long key must wait before its next token.
func (l *Limiter) RetryAfter(key string) time.Duration {
	if key == "" {
		key = AnonymousKey
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets.Peek(key)
	if !ok || b.tokens >= 1 {
		return 0
	}
	missing := 1 - b.tokens
	return time.Duration(missing * float64(window) / l.capacity)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buckets.Len()
}
