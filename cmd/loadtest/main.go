// Command loadtest keeps a fixed number of /ask requests in flight against
// a running ragserver for a fixed duration, then reports throughput, status
// codes and client-side latency percentiles.
//
// Usage:
//
//	go run ./cmd/loadtest [-url http://localhost:8000] [-concurrency 10] [-duration 30s] [-questions gold.jsonl]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/client"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/eval"
)

type Config struct {
	BaseURL     string
	APIKey      string
	K           int
	Concurrency int
	Duration    time.Duration
	Questions   []string
}

// Stats accumulates outcomes from concurrent workers. Latencies are kept
// for every request that got an HTTP response.
type Stats struct {
	mu          sync.Mutex
	total       int64
	ok          int64
	failed      int64
	rateLimited int64
	noAnswer    int64
	latencies   []time.Duration
	codes       map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies: make([]time.Duration, 0, 1<<14),
		codes:     make(map[int]int64),
	}
}

// Record files one request. status is 0 when no response arrived.
func (s *Stats) Record(d time.Duration, status int, answered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if status == 0 {
		s.failed++
		return
	}
	s.latencies = append(s.latencies, d)
	s.codes[status]++
	switch {
	case status == http.StatusOK:
		s.ok++
		if !answered {
			s.noAnswer++
		}
	case status == http.StatusTooManyRequests:
		s.rateLimited++
		s.failed++
	default:
		s.failed++
	}
}

var defaultQuestions = []string{
	"What is the deductible?",
	"Explain coinsurance in one sentence.",
	"How do I add a dependent?",
	"Define the out-of-pocket maximum.",
	"Are vision exams covered?",
	"How long do I have to file a claim?",
	"Can I appeal a denied claim?",
	"What does a copay cover?",
	"Is preventive care free?",
	"How do referrals work?",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "base URL of the QA server")
	apiKey := flag.String("api-key", os.Getenv("RAG_API_KEY"), "API key sent as X-API-Key")
	k := flag.Int("k", 3, "snippets requested per question")
	concurrency := flag.Int("concurrency", 10, "requests kept in flight")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	questionsPath := flag.String("questions", "", "gold JSONL file to draw questions from (default: built-in list)")
	flag.Parse()

	questions := defaultQuestions
	if *questionsPath != "" {
		gold, err := eval.LoadGold(*questionsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading questions: %v\n", err)
			os.Exit(1)
		}
		questions = questions[:0:0]
		for _, g := range gold {
			questions = append(questions, g.Question)
		}
		if len(questions) == 0 {
			fmt.Fprintf(os.Stderr, "%s has no questions\n", *questionsPath)
			os.Exit(1)
		}
	}

	cfg := Config{
		BaseURL:     *baseURL,
		APIKey:      *apiKey,
		K:           *k,
		Concurrency: *concurrency,
		Duration:    *duration,
		Questions:   questions,
	}

	fmt.Printf("Target %s/ask, %d workers for %s, %d distinct questions\n",
		cfg.BaseURL, cfg.Concurrency, cfg.Duration, len(cfg.Questions))

	stats, err := runLoadTest(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load test failed: %v\n", err)
		os.Exit(1)
	}
	if !printReport(os.Stdout, stats, cfg.Duration) {
		os.Exit(1)
	}
}

func runLoadTest(cfg Config) (*Stats, error) {
	hc := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: cfg.Concurrency,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	defer hc.CloseIdleConnections()
	api := client.New(cfg.BaseURL, client.WithHTTPClient(hc), client.WithAPIKey(cfg.APIKey))

	// Submit blocks while every worker is busy, so the pool size is the
	// number of requests in flight.
	pool, err := ants.NewPool(cfg.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	stats := NewStats()
	var wg sync.WaitGroup
	for i := 0; ctx.Err() == nil; i++ {
		question := cfg.Questions[i%len(cfg.Questions)]
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			start := time.Now()
			resp, err := api.Ask(ctx, question, cfg.K)
			if ctx.Err() != nil {
				// Cut off by the end of the run, not by the server.
				return
			}
			status, answered := outcome(resp, err)
			stats.Record(time.Since(start), status, answered)
		})
		if err != nil {
			wg.Done()
			return nil, fmt.Errorf("submitting request: %w", err)
		}
	}
	wg.Wait()
	return stats, nil
}

// outcome maps a client result to an HTTP status and whether the answer
// was non-empty.
func outcome(resp *client.AskResponse, err error) (int, bool) {
	var se *client.StatusError
	switch {
	case err == nil:
		return http.StatusOK, resp.Answer != ""
	case errors.As(err, &se):
		return se.StatusCode, false
	default:
		return 0, false
	}
}

// printReport writes the results and reports whether any request got a
// response.
func printReport(w io.Writer, stats *Stats, duration time.Duration) bool {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Requests:      %d (%.1f/s)\n", stats.total, float64(stats.total)/duration.Seconds())
	fmt.Fprintf(w, "OK:            %d (%d without an answer)\n", stats.ok, stats.noAnswer)
	fmt.Fprintf(w, "Failed:        %d (%d rate limited)\n", stats.failed, stats.rateLimited)

	if n := len(stats.latencies); n > 0 {
		sorted := slices.Clone(stats.latencies)
		slices.Sort(sorted)
		var sum time.Duration
		for _, d := range sorted {
			sum += d
		}
		fmt.Fprintln(w, "\n=== Latency ===")
		fmt.Fprintf(w, "min %s  avg %s  max %s\n", sorted[0], sum/time.Duration(n), sorted[n-1])
		for _, p := range []float64{50, 90, 95, 99} {
			fmt.Fprintf(w, "p%-3.0f %s\n", p, percentile(sorted, p))
		}
	}

	fmt.Fprintln(w, "\n=== Status Codes ===")
	codes := make([]int, 0, len(stats.codes))
	for code := range stats.codes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, stats.codes[code])
	}

	if len(stats.latencies) == 0 {
		fmt.Fprintln(w, "\nWARNING: no request got a response. Is the server running?")
		return false
	}
	return true
}

// percentile uses the nearest-rank method on an ascending slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[min(max(idx, 0), len(sorted)-1)]
}
