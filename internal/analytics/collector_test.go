package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ragqa/pkg/kafka"
)

type fakePublisher struct {
	mu     sync.Mutex
	events  []kafka.Event
	batches int
	err     error
}

func (p *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches++
	p.events = append(p.events, events...)
	return p.err
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestCollectorPublishesTrackedEvents(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 16)
	c.Start(context.Background())

	c.Track(AskEvent{Question: "q1"})
	c.Track(AskEvent{Question: "q2"})
	c.Close()

	require.Equal(t, 2, pub.count())
	assert.Equal(t, 1, pub.batches)
	assert.Equal(t, "ask", pub.events[0].Key)
	assert.Equal(t, "q1", pub.events[0].Value.(AskEvent).Question)
}

func TestCollectorFlushesOnInterval(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 16)
	c.Start(context.Background())
	t.Cleanup(c.Close)

	c.Track(AskEvent{Question: "q1"})
	assert.Eventually(t, func() bool { return pub.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestCollectorSplitsLargeBatches(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 250)
	for i := 0; i < 250; i++ {
		c.Track(AskEvent{Question: "q"})
	}
	c.Start(context.Background())
	c.Close()

	assert.Equal(t, 250, pub.count())
	assert.GreaterOrEqual(t, pub.batches, 3)
}

func TestCollectorDropsAfterClose(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 4)
	c.Start(context.Background())
	c.Close()
	c.Track(AskEvent{Question: "late"})
	assert.Equal(t, 0, pub.count())
	assert.Equal(t, int64(1), c.Dropped())
}

func TestCollectorDropsWhenFull(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, 1)

	c.Track(AskEvent{Question: "kept"})
	c.Track(AskEvent{Question: "dropped"})

	c.Start(context.Background())
	c.Close()
	assert.Equal(t, 1, pub.count())
	assert.Equal(t, int64(1), c.Dropped())
}

func TestCollectorSurvivesPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	c := NewCollector(pub, 4)
	c.Start(context.Background())
	c.Track(AskEvent{Question: "q"})
	c.Close()
	c.Close()
	assert.Equal(t, 1, pub.count())
}

func TestAggregatorSummary(t *testing.T) {
	agg := NewAggregator(100)
	agg.Add(AskEvent{Question: "deductible?", Returned: 3, Canonical: true, LatencyMs: 2})
	agg.Add(AskEvent{Question: "deductible?", Returned: 3, Canonical: true, CacheHit: true, LatencyMs: 4})
	agg.Add(AskEvent{Question: "zzz", Returned: 0, LatencyMs: 6})
	agg.Add(AskEvent{Question: "copay", Returned: 2, LatencyMs: 8})

	s := agg.Summary(2)
	assert.Equal(t, int64(4), s.Events)
	assert.Equal(t, 0.5, s.CanonicalRate)
	assert.Equal(t, 0.25, s.CacheHitRate)
	assert.Equal(t, int64(1), s.NoAnswerCount)
	assert.Equal(t, 4.0, s.P50LatencyMs)
	require.Len(t, s.TopQuestions, 2)
	assert.Equal(t, QuestionCount{Question: "deductible?", Count: 2}, s.TopQuestions[0])
	assert.Equal(t, "copay", s.TopQuestions[1].Question)
}

func TestHandleEventSkipsGarbage(t *testing.T) {
	agg := NewAggregator(10)
	var seen []AskEvent
	h := HandleEvent(agg, func(e AskEvent) { seen = append(seen, e) })

	require.NoError(t, h(context.Background(), nil, []byte("not json")))
	body, err := json.Marshal(AskEvent{Question: "q", Returned: 1})
	require.NoError(t, err)
	require.NoError(t, h(context.Background(), []byte("ask"), body))

	assert.Len(t, seen, 1)
	assert.Equal(t, int64(1), agg.Summary(5).Events)
}

func TestMetricsHandler(t *testing.T) {
	rec := NewRecorder(10)
	rec.Record(1.5)
	rec.Record(2.5)
	h := NewHandler(rec, "1.2.3")

	w := httptest.NewRecorder()
	h.Metrics(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2.0, body["requests"])
	assert.Equal(t, 1.5, body["latency_ms_p50"])
	assert.Equal(t, 1.5, body["latency_ms_p95"])
	assert.Equal(t, 2.0, body["window"])
	assert.Equal(t, "1.2.3", body["version"])
}
