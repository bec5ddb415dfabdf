package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/client"
)

func TestPercentile(t *testing.T) {
	var lat []time.Duration
	for i := 1; i <= 100; i++ {
		lat = append(lat, time.Duration(i)*time.Millisecond)
	}

	assert.Equal(t, 50*time.Millisecond, percentile(lat, 50))
	assert.Equal(t, 95*time.Millisecond, percentile(lat, 95))
	assert.Equal(t, 100*time.Millisecond, percentile(lat, 100))
	assert.Equal(t, time.Millisecond, percentile(lat, 0))
	assert.Zero(t, percentile(nil, 50))
}

func TestStatsRecord(t *testing.T) {
	s := NewStats()
	s.Record(time.Millisecond, http.StatusOK, true)
	s.Record(time.Millisecond, http.StatusOK, false)
	s.Record(time.Millisecond, http.StatusTooManyRequests, false)
	s.Record(0, 0, false)

	assert.EqualValues(t, 4, s.total)
	assert.EqualValues(t, 2, s.ok)
	assert.EqualValues(t, 1, s.noAnswer)
	assert.EqualValues(t, 2, s.failed)
	assert.EqualValues(t, 1, s.rateLimited)
	assert.Len(t, s.latencies, 3)
	assert.EqualValues(t, 2, s.codes[http.StatusOK])
}

func TestOutcome(t *testing.T) {
	status, answered := outcome(&client.AskResponse{Answer: "yes"}, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, answered)

	status, _ = outcome(nil, &client.StatusError{StatusCode: http.StatusUnauthorized})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = outcome(nil, errors.New("dial tcp: refused"))
	assert.Zero(t, status)
}

func TestRunLoadTest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Question string `json:"question"`
			K        int    `json:"k"`
		}
		if r.URL.Path != "/ask" || r.Method != http.MethodPost ||
			json.NewDecoder(r.Body).Decode(&body) != nil || body.K != 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"answer":"ok","latency_ms":0.1,"docs":[]}`))
	}))
	defer srv.Close()

	stats, err := runLoadTest(Config{
		BaseURL:     srv.URL,
		K:           2,
		Concurrency: 4,
		Duration:    200 * time.Millisecond,
		Questions:   defaultQuestions,
	})
	require.NoError(t, err)

	assert.Positive(t, stats.ok)
	assert.Equal(t, stats.total, stats.ok)
	assert.Zero(t, stats.noAnswer)

	var buf bytes.Buffer
	assert.True(t, printReport(&buf, stats, 200*time.Millisecond))
	assert.Contains(t, buf.String(), "200: ")
}

func TestPrintReportWithoutResponses(t *testing.T) {
	s := NewStats()
	s.Record(0, 0, false)
	var buf bytes.Buffer
	assert.False(t, printReport(&buf, s, time.Second))
	assert.Contains(t, buf.String(), "WARNING")
}
