package analytics

import (
	"math"
	"sort"
	"sync"
)

// DefaultWindow is the number of latency samples kept for percentiles.
const DefaultWindow = 5000

// Snapshot is a point-in-time view of the latency window.
type Snapshot struct {
	Requests int64   `json:"requests"`
	P50      float64 `json:"latency_ms_p50"`
	P95      float64 `json:"latency_ms_p95"`
	Window   int     `json:"window"`
}

// Recorder keeps the most recent latency samples in a ring buffer along
// with a lifetime request count. It has its own lock and never contends
// with the rate limiter.
type Recorder struct {
	mu      sync.Mutex
	samples []float64
	next    int
	full    bool
	total   int64
}

// NewRecorder creates a recorder holding at most capacity samples. A
// non-positive capacity uses DefaultWindow.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultWindow
	}
	return &Recorder{samples: make([]float64, capacity)}
}

// Record adds one latency sample in milliseconds, evicting the oldest
// when the window is full.
func (r *Recorder) Record(ms float64) {
	r.mu.Lock()
	r.samples[r.next] = ms
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
	r.total++
	r.mu.Unlock()
}

// Snapshot returns the request count and the p50/p95 of the current
// window. Sorting happens on a copy outside the lock.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	n := r.next
	if r.full {
		n = len(r.samples)
	}
	window := make([]float64, n)
	copy(window, r.samples[:n])
	total := r.total
	r.mu.Unlock()

	sort.Float64s(window)
	return Snapshot{
		Requests: total,
		P50:      round3(percentile(window, 0.50)),
		P95:      round3(percentile(window, 0.95)),
		Window:   len(window),
	}
}

// Capacity returns the maximum window size.
func (r *Recorder) Capacity() int {
	return len(r.samples)
}

// percentile returns sorted[int(p*(n-1))], or 0 for an empty slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(p*float64(len(sorted)-1))]
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
