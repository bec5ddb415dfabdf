// Package retrieval returns the top-k snippets for a question by BM25 score.
package retrieval

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/index"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/textproc"
	apperrors "github.com/Adithya-Monish-Kumar-K/ragqa/pkg/errors"
)

// Candidate is a retrieved snippet with its score. Scores are only
// comparable within a single request.
type Candidate struct {
	ID    string  `json:"doc_id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type Retriever struct {
	idx *index.Index
}

// New wraps a loaded index. A nil or empty index is a configuration error.
func New(idx *index.Index) (*Retriever, error) {
	if idx == nil || idx.Len() == 0 {
		return nil, apperrors.ErrIndexNotLoaded
	}
	return &Retriever{idx: idx}, nil
}

// Len returns the number of indexed snippets.
func (r *Retriever) Len() int {
	return r.idx.Len()
}

// Query scores every snippet against question and returns at most k
// candidates, highest score first. Equal scores keep corpus order. k below
// 1 is treated as 1.
func (r *Retriever) Query(question string, k int) []Candidate {
	if k < 1 {
		k = 1
	}
	scores := r.idx.Score(textproc.Tokenize(question))

	h := make(scoredHeap, 0, k+1)
	for doc, score := range scores {
		heap.Push(&h, scored{doc: doc, score: score})
		if h.Len() > k {
			heap.Pop(&h)
		}
	}

	result := make([]Candidate, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		s := heap.Pop(&h).(scored)
		snip := r.idx.Snippet(s.doc)
		result[i] = Candidate{ID: snip.ID, Text: snip.Text, Score: s.score}
	}
	return result
}

type scored struct {
	doc   int
	score float64
}

// scoredHeap is a min-heap: the root is the weakest candidate, with later
// corpus positions weaker on ties.
type scoredHeap []scored

func (h scoredHeap) Len() int { return len(h) }

func (h scoredHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].doc > h[j].doc
}

func (h scoredHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredHeap) Push(x interface{}) {
	*h = append(*h, x.(scored))
}

func (h *scoredHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
