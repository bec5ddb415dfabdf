package analytics

import (
	"context"
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/kafka"
)

// Summary describes a stream of AskEvents, as printed by `ragctl events tail`.
type Summary struct {
	Events        int64           `json:"events"`
	CanonicalRate float64         `json:"canonical_rate"`
	CacheHitRate  float64         `json:"cache_hit_rate"`
	NoAnswerCount int64           `json:"no_answer_count"`
	P50LatencyMs  float64         `json:"latency_ms_p50"`
	P95LatencyMs  float64         `json:"latency_ms_p95"`
	TopQuestions  []QuestionCount `json:"top_questions"`
}

type QuestionCount struct {
	Question string `json:"question"`
	Count    int64  `json:"count"`
}

// Aggregator accumulates AskEvents consumed from Kafka.
type Aggregator struct {
	mu        sync.Mutex
	events    int64
	canonical int64
	cacheHits int64
	noAnswer  int64
	latencies *Recorder
	questions map[string]int64
}

func NewAggregator(window int) *Aggregator {
	return &Aggregator{
		latencies: NewRecorder(window),
		questions: make(map[string]int64),
	}
}

// Add folds one event into the running summary.
func (a *Aggregator) Add(event AskEvent) {
	a.latencies.Record(event.LatencyMs)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.events++
	if event.Canonical {
		a.canonical++
	}
	if event.CacheHit {
		a.cacheHits++
	}
	if event.NoAnswer() {
		a.noAnswer++
	}
	a.questions[event.Question]++
}

// HandleEvent returns a kafka.MessageHandler that decodes AskEvents, adds
// them to agg and then passes them to onEvent when it is non-nil.
// Undecodable messages are skipped.
func HandleEvent(agg *Aggregator, onEvent func(AskEvent)) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[AskEvent](value)
		if err != nil {
			return nil
		}
		agg.Add(event)
		if onEvent != nil {
			onEvent(event)
		}
		return nil
	}
}

// Summary returns the aggregate over all events added so far.
func (a *Aggregator) Summary(limit int) Summary {
	snap := a.latencies.Snapshot()

	a.mu.Lock()
	defer a.mu.Unlock()

	s := Summary{
		Events:        a.events,
		NoAnswerCount: a.noAnswer,
		P50LatencyMs:  snap.P50,
		P95LatencyMs:  snap.P95,
		TopQuestions:  topN(a.questions, limit),
	}
	if a.events > 0 {
		s.CanonicalRate = round3(float64(a.canonical) / float64(a.events))
		s.CacheHitRate = round3(float64(a.cacheHits) / float64(a.events))
	}
	return s
}

func topN(counts map[string]int64, n int) []QuestionCount {
	result := make([]QuestionCount, 0, len(counts))
	for q, count := range counts {
		result = append(result, QuestionCount{Question: q, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Question < result[j].Question
	})
	if n >= 0 && len(result) > n {
		result = result[:n]
	}
	return result
}
