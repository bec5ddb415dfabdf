// Package resilience keeps the answer path healthy while optional backends
// misbehave. A CircuitBreaker sheds calls to a failing dependency and Retry
// re-runs a bounded operation with backoff.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Execute while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker phase. Its numeric value is exported as a gauge.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// CircuitBreakerConfig configures a breaker. Zero values take defaults.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker. Default 5.
	FailureThreshold int
	// ResetTimeout is how long the breaker stays open before letting
	// probes through. Default 30s.
	ResetTimeout time.Duration
	// HalfOpenMaxRequests caps concurrent probes. Default 1.
	HalfOpenMaxRequests int
	// OnStateChange is called under the breaker lock after each
	// transition and must not call back into the breaker.
	OnStateChange func(name string, to State)
}

// Counts is a snapshot of breaker activity since creation.
type Counts struct {
	Successes           int64
	Failures            int64
	Rejected            int64
	ConsecutiveFailures int
}

// CircuitBreaker opens after a run of consecutive failures, rejects calls
// for ResetTimeout, then admits a limited number of probes. One successful
// probe closes it; a failed probe opens it again.
type CircuitBreaker struct {
	name string
	cfg  CircuitBreakerConfig
	now  func() time.Time

	mu       sync.Mutex
	state    State
	openedAt time.Time
	probes   int
	counts   Counts
	logger   *slog.Logger
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxRequests <= 0 {
		cfg.HalfOpenMaxRequests = 1
	}
	return &CircuitBreaker{
		name:   name,
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default().With("component", "circuit-breaker", "name", name),
	}
}

// Execute calls fn unless the breaker is rejecting, and records the outcome.
// Rejections wrap ErrCircuitOpen and fn is not called.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn()
	cb.record(err == nil)
	return err
}

// GetState returns the current state. An open breaker whose timeout has
// elapsed still reports open until the next call is admitted.
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns a snapshot of the breaker's counters.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

func (cb *CircuitBreaker) Name() string { return cb.name }

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		remaining := cb.cfg.ResetTimeout - cb.now().Sub(cb.openedAt)
		if remaining > 0 {
			cb.counts.Rejected++
			return fmt.Errorf("%s: %w, retry in %v", cb.name, ErrCircuitOpen, remaining.Round(time.Millisecond))
		}
		cb.transition(StateHalfOpen)
		cb.probes = 0
	}
	if cb.state == StateHalfOpen {
		if cb.probes >= cb.cfg.HalfOpenMaxRequests {
			cb.counts.Rejected++
			return fmt.Errorf("%s: %w, probe in flight", cb.name, ErrCircuitOpen)
		}
		cb.probes++
	}
	return nil
}

func (cb *CircuitBreaker) record(ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if ok {
		cb.counts.Successes++
		cb.counts.ConsecutiveFailures = 0
		if cb.state == StateHalfOpen {
			cb.transition(StateClosed)
			cb.logger.Info("circuit closed")
		}
		return
	}

	cb.counts.Failures++
	cb.counts.ConsecutiveFailures++
	switch {
	case cb.state == StateHalfOpen:
		cb.open()
		cb.logger.Warn("probe failed, circuit reopened")
	case cb.state == StateClosed && cb.counts.ConsecutiveFailures >= cb.cfg.FailureThreshold:
		cb.open()
		cb.logger.Warn("circuit opened", "consecutive_failures", cb.counts.ConsecutiveFailures)
	}
}

func (cb *CircuitBreaker) open() {
	cb.openedAt = cb.now()
	cb.transition(StateOpen)
}

func (cb *CircuitBreaker) transition(to State) {
	cb.state = to
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.name, to)
	}
}
