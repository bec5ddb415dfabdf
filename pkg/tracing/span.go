// Package tracing times the stages of one request. A Trace travels in the
// context; each stage records its duration and a few attributes, and the
// whole trace is emitted as a single debug log line when it ends.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/logger"
)

type ctxKey struct{}

// Stage is one finished step of a trace.
type Stage struct {
	Name     string
	Duration time.Duration
	Attrs    []slog.Attr
}

// Trace collects stages in the order they finish.
type Trace struct {
	ID   string
	Name string

	start    time.Time
	mu       sync.Mutex
	stages   []Stage
	attrs    []slog.Attr
	duration time.Duration
}

// Start begins a trace and returns a context carrying it.
func Start(ctx context.Context, name, id string) (context.Context, *Trace) {
	t := &Trace{ID: id, Name: name, start: time.Now()}
	return context.WithValue(ctx, ctxKey{}, t), t
}

// FromContext returns the trace in ctx, or nil.
func FromContext(ctx context.Context) *Trace {
	t, _ := ctx.Value(ctxKey{}).(*Trace)
	return t
}

// StageTimer measures one stage. The zero value and nil are valid and
// record nothing, so callers never check whether tracing is active.
type StageTimer struct {
	trace *Trace
	name  string
	start time.Time
}

// StartStage begins timing name on the trace in ctx.
func StartStage(ctx context.Context, name string) *StageTimer {
	return &StageTimer{trace: FromContext(ctx), name: name, start: time.Now()}
}

// End records the stage with attrs.
func (s *StageTimer) End(attrs ...slog.Attr) {
	if s == nil || s.trace == nil {
		return
	}
	stage := Stage{Name: s.name, Duration: time.Since(s.start), Attrs: attrs}
	s.trace.mu.Lock()
	s.trace.stages = append(s.trace.stages, stage)
	s.trace.mu.Unlock()
}

// Set attaches an attribute to the trace itself.
func (t *Trace) Set(key string, value any) {
	t.mu.Lock()
	t.attrs = append(t.attrs, slog.Any(key, value))
	t.mu.Unlock()
}

// End stops the clock and returns the total duration. Later calls return
// the first result.
func (t *Trace) End() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.duration == 0 {
		t.duration = time.Since(t.start)
	}
	return t.duration
}

// Stages returns a copy of the finished stages.
func (t *Trace) Stages() []Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Stage(nil), t.stages...)
}

// Log writes the trace as one debug record with a group per stage. It does
// nothing unless debug logging is enabled.
func (t *Trace) Log(ctx context.Context) {
	l := logger.FromContext(ctx)
	if !l.Enabled(ctx, slog.LevelDebug) {
		return
	}

	t.mu.Lock()
	args := []any{
		slog.String("trace_id", t.ID),
		slog.String("trace", t.Name),
		slog.Float64("duration_ms", millis(t.duration)),
	}
	for _, a := range t.attrs {
		args = append(args, a)
	}
	for _, s := range t.stages {
		group := []any{slog.Float64("ms", millis(s.Duration))}
		for _, a := range s.Attrs {
			group = append(group, a)
		}
		args = append(args, slog.Group(s.Name, group...))
	}
	t.mu.Unlock()

	l.DebugContext(ctx, "trace", args...)
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
