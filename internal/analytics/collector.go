package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/kafka"
)

const (
	maxBatch      = 100
	flushInterval = 250 * time.Millisecond
	publishWait   = 5 * time.Second
)

// Publisher is the subset of kafka.Producer the collector needs.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector ships AskEvents to Kafka in batches from a background
// goroutine. A batch goes out when it reaches 100 events or 250ms after
// its first event. Track never blocks; when the buffer is full the event
// is dropped and counted.
type Collector struct {
	publisher Publisher
	events    chan AskEvent
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	dropped   atomic.Int64
	logger    *slog.Logger
}

func NewCollector(publisher Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher: publisher,
		events:    make(chan AskEvent, bufferSize),
		done:      make(chan struct{}),
		logger:    slog.Default().With("component", "analytics-collector"),
	}
}

// Start runs the batching loop until Close. Each publish is bounded by
// five seconds; ctx only carries values and cancellation of in-flight
// writes, so events tracked before Close are still flushed after ctx ends.
func (c *Collector) Start(ctx context.Context) {
	go c.run(context.WithoutCancel(ctx))
	c.logger.Info("analytics collector started", "buffer_size", cap(c.events))
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)

	batch := make([]kafka.Event, 0, maxBatch)
	timer := time.NewTimer(flushInterval)
	timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		pubCtx, cancel := context.WithTimeout(ctx, publishWait)
		if err := c.publisher.PublishBatch(pubCtx, batch); err != nil {
			c.logger.Error("failed to publish ask events", "count", len(batch), "error", err)
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case event, ok := <-c.events:
			if !ok {
				timer.Stop()
				flush()
				return
			}
			if len(batch) == 0 {
				timer.Reset(flushInterval)
			}
			batch = append(batch, kafka.Event{Key: "ask", Value: event})
			if len(batch) == maxBatch {
				timer.Stop()
				flush()
			}
		case <-timer.C:
			flush()
		}
	}
}

// Track enqueues an event without blocking. Events tracked after Close
// are dropped.
func (c *Collector) Track(event AskEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.dropped.Add(1)
		return
	}
	select {
	case c.events <- event:
	default:
		if n := c.dropped.Add(1); n&(n-1) == 0 {
			c.logger.Warn("analytics buffer full, dropping events", "dropped_total", n)
		}
	}
}

// Dropped returns how many events were discarded.
func (c *Collector) Dropped() int64 { return c.dropped.Load() }

// Close stops accepting events, flushes what is buffered and waits for the
// loop to exit. It must follow Start.
func (c *Collector) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.events)
		c.mu.Unlock()
	})
	<-c.done
}
