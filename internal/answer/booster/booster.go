// Package booster re-ranks retrieved candidates by how many of the
// question's content terms appear in them.
package booster

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/retrieval"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/textproc"
)

// NoAnswer is the text handed to the extractor when nothing was retrieved.
const NoAnswer = "No answer found."

const (
	boostPerMatch = 0.6
	maxBoost      = 1.8
)

// Boosted is a candidate whose Score includes the content-term bonus.
type Boosted struct {
	retrieval.Candidate
	Matches int `json:"-"`
}

// Rerank adds min(1.8, 0.6*matches) to each candidate's score and sorts
// by (matches > 0, boosted score) descending. The sort is stable, so ties
// keep retrieval order. cands is not modified.
func Rerank(cands []retrieval.Candidate, terms []string) []Boosted {
	out := make([]Boosted, len(cands))
	for i, c := range cands {
		matches := textproc.CountMatches(c.Text, terms)
		c.Score += Bonus(matches)
		out[i] = Boosted{Candidate: c, Matches: matches}
	}
	sort.SliceStable(out, func(i, j int) bool {
		mi, mj := out[i].Matches > 0, out[j].Matches > 0
		if mi != mj {
			return mi
		}
		return out[i].Score > out[j].Score
	})
	return out
}

// Bonus returns the score added for the given number of term matches.
func Bonus(matches int) float64 {
	return math.Min(maxBoost, boostPerMatch*float64(matches))
}

// TopText returns the best candidate's text, or NoAnswer.
func TopText(boosted []Boosted) string {
	if len(boosted) == 0 {
		return NoAnswer
	}
	return boosted[0].Text
}

// Candidates strips the match counts.
func Candidates(boosted []Boosted) []retrieval.Candidate {
	out := make([]retrieval.Candidate, len(boosted))
	for i, b := range boosted {
		out[i] = b.Candidate
	}
	return out
}
