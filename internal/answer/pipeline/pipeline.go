// Package pipeline answers a question by running retrieval, boosting,
// sentence extraction and canonicalization in order, and records the
// request's latency.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/booster"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/canonical"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/answer/extractor"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/retrieval"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/textproc"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/tracing"
)

// Doc is a boosted candidate as returned to clients.
type Doc = retrieval.Candidate

// Result is the answer to one question.
type Result struct {
	Answer    string  `json:"answer"`
	LatencyMs float64 `json:"latency_ms"`
	Docs      []Doc   `json:"docs"`

	Canonical bool `json:"-"`
	CacheHit  bool `json:"-"`
}

// Cache stores computed results. GetOrCompute returns a cached result or
// calls compute, reporting whether the result came from the cache. Cache
// failures must not surface as errors from GetOrCompute.
type Cache interface {
	GetOrCompute(ctx context.Context, question string, k int, compute func() (*Result, error)) (*Result, bool, error)
}

// Tracker receives an event per answered question. Track must not block.
type Tracker interface {
	Track(event analytics.AskEvent)
}

type Pipeline struct {
	retriever *retrieval.Retriever
	canon     *canonical.Canonicalizer
	recorder  *analytics.Recorder
	metrics   *metrics.Metrics
	cache     Cache
	tracker   Tracker
	logger    *slog.Logger
}

type Option func(*Pipeline)

// WithMetrics observes Prometheus collectors for every answer.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithCache consults c before computing an answer.
func WithCache(c Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithTracker publishes an AskEvent per answer.
func WithTracker(t Tracker) Option {
	return func(p *Pipeline) { p.tracker = t }
}

// New builds a pipeline. A nil canonicalizer uses canonical.Default and a
// nil recorder gets a default-sized one.
func New(r *retrieval.Retriever, canon *canonical.Canonicalizer, rec *analytics.Recorder, opts ...Option) *Pipeline {
	if canon == nil {
		canon = canonical.Default()
	}
	if rec == nil {
		rec = analytics.NewRecorder(analytics.DefaultWindow)
	}
	p := &Pipeline{
		retriever: r,
		canon:     canon,
		recorder:  rec,
		logger:    slog.Default().With("component", "answer-pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Recorder returns the latency recorder fed by Answer.
func (p *Pipeline) Recorder() *analytics.Recorder {
	return p.recorder
}

// Answer computes the answer for question using the top k snippets. The
// only error is ctx's, when it is already done.
func (p *Pipeline) Answer(ctx context.Context, question string, k int) (*Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		p.observeOutcome(metrics.OutcomeCancelled)
		return nil, fmt.Errorf("answering question: %w", err)
	}

	requestID := logger.RequestID(ctx)
	ctx, trace := tracing.Start(ctx, "ask", requestID)

	var (
		res *Result
		hit bool
		err error
	)
	if p.cache != nil {
		res, hit, err = p.cache.GetOrCompute(ctx, question, k, func() (*Result, error) {
			return p.compute(ctx, question, k, start), nil
		})
		if err != nil {
			p.logger.Warn("cache returned error, computing directly", "error", err)
			res, hit = p.compute(ctx, question, k, start), false
		}
	} else {
		res = p.compute(ctx, question, k, start)
	}

	elapsed := time.Since(start)
	latencyMs := float64(elapsed.Microseconds()) / 1000
	p.recorder.Record(latencyMs)

	// Results may be shared through the cache, so never modify them in place.
	// A cache hit keeps its stored latency_ms.
	cp := *res
	cp.CacheHit = hit
	if !hit {
		cp.LatencyMs = latencyMs
	}
	res = &cp

	trace.Set("cache_hit", hit)
	trace.Set("returned", len(res.Docs))
	trace.End()
	trace.Log(ctx)

	p.observe(res, elapsed)
	p.track(ctx, question, res, latencyMs)

	logger.FromContext(ctx).Debug("question answered",
		"k", k,
		"returned", len(res.Docs),
		"canonical", res.Canonical,
		"cache_hit", res.CacheHit,
		"latency_ms", latencyMs,
	)
	return res, nil
}

func (p *Pipeline) compute(ctx context.Context, question string, k int, start time.Time) *Result {
	stage := tracing.StartStage(ctx, "retrieve")
	cands := p.retriever.Query(question, k)
	stage.End(slog.Int("candidates", len(cands)))

	stage = tracing.StartStage(ctx, "boost")
	terms := textproc.ContentTerms(question)
	boosted := booster.Rerank(cands, terms)
	stage.End(slog.Int("terms", len(terms)))

	stage = tracing.StartStage(ctx, "extract")
	sentence := extractor.BestSentence(booster.TopText(boosted), terms)
	stage.End()

	stage = tracing.StartStage(ctx, "canonicalize")
	answer, canon := p.canon.Apply(question, sentence)
	stage.End(slog.Bool("canonical", canon))

	return &Result{
		Answer:    answer,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
		Docs:      booster.Candidates(boosted),
		Canonical: canon,
	}
}

func (p *Pipeline) observe(res *Result, elapsed time.Duration) {
	if p.metrics == nil {
		return
	}
	p.metrics.AskLatency.Observe(elapsed.Seconds())
	p.metrics.AskCandidatesReturned.Observe(float64(len(res.Docs)))
	p.observeOutcome(outcome(res))
}

func (p *Pipeline) observeOutcome(o string) {
	if p.metrics == nil {
		return
	}
	p.metrics.AskRequestsTotal.WithLabelValues(o).Inc()
}

func (p *Pipeline) track(ctx context.Context, question string, res *Result, latencyMs float64) {
	if p.tracker == nil {
		return
	}
	event := analytics.AskEvent{
		Question:     question,
		ContentTerms: textproc.ContentTerms(question),
		Returned:     len(res.Docs),
		Canonical:    res.Canonical,
		LatencyMs:    latencyMs,
		CacheHit:     res.CacheHit,
		Timestamp:    time.Now().UTC(),
		RequestID:    logger.RequestID(ctx),
	}
	if len(res.Docs) > 0 {
		event.TopDocID = res.Docs[0].ID
	}
	p.tracker.Track(event)
}

func outcome(res *Result) string {
	switch {
	case res.CacheHit:
		return metrics.OutcomeCacheHit
	case res.Canonical:
		return metrics.OutcomeCanonical
	case len(res.Docs) == 0:
		return metrics.OutcomeNoAnswer
	default:
		return metrics.OutcomeAnswered
	}
}
