package booster

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/retrieval"
)

func TestBonusIsCapped(t *testing.T) {
	assert.Equal(t, 0.0, Bonus(0))
	assert.InDelta(t, 0.6, Bonus(1), 1e-9)
	assert.InDelta(t, 1.8, Bonus(3), 1e-9)
	assert.InDelta(t, 1.8, Bonus(12), 1e-9)
}

func TestRerankMatchesOutrankNonMatches(t *testing.T) {
	cands := []retrieval.Candidate{
		{ID: "a", Text: "Premiums are billed monthly.", Score: 9.0},
		{ID: "b", Text: "The deductible resets each year.", Score: 0.1},
		{ID: "c", Text: "Nothing relevant here.", Score: 5.0},
	}

	got := Rerank(cands, []string{"deductible"})
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, 1, got[0].Matches)
	assert.InDelta(t, 0.7, got[0].Score, 1e-9)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, "c", got[2].ID)

	assert.Equal(t, 9.0, cands[0].Score, "input must not be modified")
}

func TestRerankStableOnTies(t *testing.T) {
	cands := []retrieval.Candidate{
		{ID: "first", Text: "alpha", Score: 1},
		{ID: "second", Text: "beta", Score: 1},
	}
	got := Rerank(cands, nil)
	assert.Equal(t, "first", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
}

func TestRerankInvariantRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"deductible", "copay", "premium", "network", "claim"}
	for round := 0; round < 200; round++ {
		n := rng.Intn(8)
		cands := make([]retrieval.Candidate, n)
		for i := range cands {
			cands[i] = retrieval.Candidate{
				ID:    string(rune('a' + i)),
				Text:  words[rng.Intn(len(words))] + " " + words[rng.Intn(len(words))],
				Score: rng.Float64() * 20,
			}
		}
		got := Rerank(cands, []string{"deductible", "claim"})

		seenZero := false
		for _, b := range got {
			if b.Matches == 0 {
				seenZero = true
				continue
			}
			require.False(t, seenZero, "matching candidate ranked below a non-matching one")
		}
	}
}

func TestTopText(t *testing.T) {
	assert.Equal(t, NoAnswer, TopText(nil))
	assert.Equal(t, "x", TopText([]Boosted{{Candidate: retrieval.Candidate{Text: "x"}}}))
}
