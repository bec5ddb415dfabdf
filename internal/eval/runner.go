package eval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/client"
)

// Asker is implemented by client.Client.
type Asker interface {
	Ask(ctx context.Context, question string, k int) (*client.AskResponse, error)
}

// Report summarises a run over the answered gold records.
type Report struct {
	Total         int     `json:"total"`
	Used          int     `json:"used"`
	Errors        int     `json:"errors"`
	K             int     `json:"k"`
	MeanF1        float64 `json:"answer_f1"`
	ExactMatch    float64 `json:"exact_match"`
	SubstringRate float64 `json:"substring_rate"`
	RecallAtK     float64 `json:"recall_at_k"`
	// Id-based metrics, over records that list gold doc ids.
	IDRecallAtK float64 `json:"id_recall_at_k,omitempty"`
	MRRAtK      float64 `json:"mrr_at_k,omitempty"`
}

type Runner struct {
	asker       Asker
	k           int
	concurrency int
	logger      *slog.Logger
}

func NewRunner(asker Asker, k, concurrency int) *Runner {
	if k < 1 {
		k = 1
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		asker:       asker,
		k:           k,
		concurrency: concurrency,
		logger:      slog.Default().With("component", "eval-runner"),
	}
}

type scored struct {
	ok        bool
	f1        float64
	exact     float64
	substring float64
	recall    float64
	hasIDs    bool
	idRecall  float64
	mrr       float64
}

// Run asks every answered gold question and scores the responses. Records
// without an answer are skipped. Failed requests are counted in Errors and
// left out of the means.
func (r *Runner) Run(ctx context.Context, gold []GoldRecord) (*Report, error) {
	pool, err := ants.NewPool(r.concurrency)
	if err != nil {
		return nil, fmt.Errorf("creating eval pool: %w", err)
	}
	defer pool.Release()

	var used []GoldRecord
	for _, g := range gold {
		if g.Answered() {
			used = append(used, g)
		}
	}

	results := make([]scored, len(used))
	var wg sync.WaitGroup
	for i, g := range used {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i] = r.score(ctx, g)
		}); err != nil {
			wg.Done()
			return nil, fmt.Errorf("submitting eval task: %w", err)
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := &Report{Total: len(gold), Used: len(used), K: r.k}
	var f1s, exact, substr, recall, idRecall, mrr []float64
	for _, s := range results {
		if !s.ok {
			rep.Errors++
			continue
		}
		f1s = append(f1s, s.f1)
		exact = append(exact, s.exact)
		substr = append(substr, s.substring)
		recall = append(recall, s.recall)
		if s.hasIDs {
			idRecall = append(idRecall, s.idRecall)
			mrr = append(mrr, s.mrr)
		}
	}
	rep.MeanF1 = mean(f1s)
	rep.ExactMatch = mean(exact)
	rep.SubstringRate = mean(substr)
	rep.RecallAtK = mean(recall)
	rep.IDRecallAtK = mean(idRecall)
	rep.MRRAtK = mean(mrr)
	return rep, nil
}

func (r *Runner) score(ctx context.Context, g GoldRecord) scored {
	resp, err := r.asker.Ask(ctx, g.Question, r.k)
	if err != nil {
		r.logger.Warn("ask failed", "id", g.ID, "error", err)
		return scored{}
	}

	s := scored{
		ok:    true,
		f1:    TokenF1(resp.Answer, g.Answer),
		exact: ExactMatch(resp.Answer, g.Answer),
	}
	if ContainsNormalized(g.Answer, resp.Answer) {
		s.substring = 1
	}
	ranked := make([]string, len(resp.Docs))
	for i, d := range resp.Docs {
		ranked[i] = d.DocID
		if ContainsNormalized(g.Answer, d.Text) {
			s.recall = 1
		}
	}
	if len(g.DocIDs) > 0 {
		s.hasIDs = true
		s.idRecall = RecallAtK(ranked, g.DocIDs, r.k)
		s.mrr = MRRAtK(ranked, g.DocIDs, r.k)
	}
	return s
}
