package retrieval

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/ragqa/pkg/errors"
)

func newRetriever(t *testing.T, texts ...string) *Retriever {
	t.Helper()
	snippets := make([]index.Snippet, len(texts))
	for i, text := range texts {
		snippets[i] = index.Snippet{ID: fmt.Sprintf("doc:%d", i), Text: text}
	}
	idx, err := index.Build(snippets)
	require.NoError(t, err)
	r, err := New(idx)
	require.NoError(t, err)
	return r
}

func TestNewRequiresLoadedIndex(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.Is(err, apperrors.ErrIndexNotLoaded))
}

func TestQueryOrdersByScore(t *testing.T) {
	r := newRetriever(t,
		"Vision coverage is separate.",
		"Submit the dependent enrollment form to add a dependent.",
		"Dependent care accounts are available.",
	)

	got := r.Query("How do I add a dependent?", 3)
	require.Len(t, got, 3)
	assert.Equal(t, "doc:1", got[0].ID)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestQueryRespectsK(t *testing.T) {
	r := newRetriever(t, "one apple", "two apples", "three pears", "four plums")

	assert.Len(t, r.Query("apple", 2), 2)
	assert.Len(t, r.Query("apple", 10), 4)
	assert.Len(t, r.Query("apple", 0), 1)
	assert.Len(t, r.Query("apple", -5), 1)
}

func TestQueryTiesKeepCorpusOrder(t *testing.T) {
	r := newRetriever(t, "alpha", "beta", "gamma", "delta")

	got := r.Query("nothing matches", 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"doc:0", "doc:1", "doc:2"}, []string{got[0].ID, got[1].ID, got[2].ID})
	for _, c := range got {
		assert.Equal(t, 0.0, c.Score)
	}
}

func TestQueryEmptyQuestion(t *testing.T) {
	r := newRetriever(t, "alpha", "beta")
	got := r.Query("", 3)
	assert.Len(t, got, 2)
}
