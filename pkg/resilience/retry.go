package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// RetryConfig controls Retry. Zero fields take defaults.
type RetryConfig struct {
	// MaxAttempts includes the first call. Default 3.
	MaxAttempts int
	// InitialDelay is the wait after the first failure; it doubles after
	// each further failure up to MaxDelay. Defaults 100ms and 5s.
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// AttemptTimeout bounds each call. Zero means only ctx bounds it.
	AttemptTimeout time.Duration
	// Permanent reports errors that retrying cannot fix.
	Permanent func(error) bool
}

// Retry calls fn until it succeeds, returns a permanent error, runs out of
// attempts or ctx ends. Each attempt gets its own context, bounded by
// AttemptTimeout when set. Delays carry up to 10% jitter.
func Retry(ctx context.Context, name string, cfg RetryConfig, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	logger := slog.Default().With("component", "retry", "operation", name)

	delay := cfg.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = runAttempt(ctx, cfg.AttemptTimeout, fn)
		if err == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", name, ctx.Err())
		}
		if cfg.Permanent != nil && cfg.Permanent(err) {
			return fmt.Errorf("%s: %w", name, err)
		}
		if attempt >= cfg.MaxAttempts {
			return fmt.Errorf("%s: giving up after %d attempts: %w", name, attempt, err)
		}

		wait := jitter(delay)
		logger.Warn("attempt failed", "attempt", attempt, "error", err, "retry_in", wait)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%s: %w", name, ctx.Err())
		case <-t.C:
		}
		delay = min(delay*2, cfg.MaxDelay)
	}
}

func runAttempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := fn(attemptCtx)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("attempt exceeded %v: %w", timeout, context.DeadlineExceeded)
	}
	return err
}

func jitter(d time.Duration) time.Duration {
	spread := int64(d) / 10
	if spread <= 0 {
		return d
	}
	return d - time.Duration(spread) + time.Duration(rand.Int63n(2*spread+1))
}
