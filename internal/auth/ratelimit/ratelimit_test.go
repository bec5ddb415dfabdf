package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestAllowBurstThenReject(t *testing.T) {
	clock := newClock()
	l := New(2, WithClock(clock.Now))

	assert.True(t, l.Allow("key-a"))
	assert.True(t, l.Allow("key-a"))
	assert.False(t, l.Allow("key-a"))
}

func TestAllowRefillsOverTime(t *testing.T) {
	clock := newClock()
	l := New(2, WithClock(clock.Now))

	require.True(t, l.Allow("k"))
	require.True(t, l.Allow("k"))
	require.False(t, l.Allow("k"))

	clock.Advance(29 * time.Second)
	assert.False(t, l.Allow("k"), "0.97 tokens is not enough")

	clock.Advance(2 * time.Second)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}

func TestSixtyPerMinuteRefillsOneTokenPerSecond(t *testing.T) {
	clock := newClock()
	l := New(60, WithClock(clock.Now))

	for i := 0; i < 60; i++ {
		require.True(t, l.Allow("k"), "request %d", i+1)
	}
	require.False(t, l.Allow("k"))

	clock.Advance(time.Second)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}

func TestAllowCapsAtCapacity(t *testing.T) {
	clock := newClock()
	l := New(3, WithClock(clock.Now))

	require.True(t, l.Allow("k"))
	clock.Advance(time.Hour)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("k"), "request %d", i)
	}
	assert.False(t, l.Allow("k"))
}

func TestKeysAreIndependent(t *testing.T) {
	clock := newClock()
	l := New(1, WithClock(clock.Now))

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
	assert.Equal(t, 2, l.Len())
}

func TestEmptyKeyIsAnonymous(t *testing.T) {
	clock := newClock()
	l := New(1, WithClock(clock.Now))

	assert.True(t, l.Allow(""))
	assert.False(t, l.Allow(AnonymousKey))
}

func TestRetryAfter(t *testing.T) {
	clock := newClock()
	l := New(60, WithClock(clock.Now))

	assert.Zero(t, l.RetryAfter("k"))
	for i := 0; i < 60; i++ {
		require.True(t, l.Allow("k"))
	}
	require.False(t, l.Allow("k"))
	assert.InDelta(t, float64(time.Second), float64(l.RetryAfter("k")), float64(time.Millisecond))
}

func TestMaxKeysBoundsMemory(t *testing.T) {
	l := New(5, WithMaxKeys(3))
	for i := 0; i < 10; i++ {
		l.Allow(fmt.Sprintf("key-%d", i))
	}
	assert.Equal(t, 3, l.Len())
}

func TestConcurrentAllowNeverOverspends(t *testing.T) {
	clock := newClock()
	l := New(50, WithClock(clock.Now))

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), allowed.Load())
}
