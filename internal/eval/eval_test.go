package eval

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/client"
)

func TestTokenF1(t *testing.T) {
	assert.Equal(t, 1.0, TokenF1("", ""))
	assert.Equal(t, 0.0, TokenF1("", "x"))
	assert.Equal(t, 1.0, TokenF1("The Deductible!", "the deductible"))
	// pred: a a b (3), gold: a b c d (4) -> common 2 -> p=2/3 r=1/2
	assert.InDelta(t, 2*(2.0/3)*(0.5)/((2.0/3)+0.5), TokenF1("a a b", "a b c d"), 1e-9)
	assert.Equal(t, 0.0, TokenF1("x", "y"))
}

func TestExactMatchAndNormF1(t *testing.T) {
	assert.Equal(t, 1.0, ExactMatch("  The  Deductible ", "the deductible"))
	assert.Equal(t, 0.0, ExactMatch("the deductible.", "the deductible"))

	assert.Equal(t, 0.0, NormF1("", "a"))
	assert.Equal(t, 1.0, NormF1("A b", "b a"))
	assert.InDelta(t, 0.5, NormF1("a b", "a c"), 1e-9)
}

func TestContainsNormalized(t *testing.T) {
	assert.True(t, ContainsNormalized("  Deductible ", "The deductible is $500."))
	assert.False(t, ContainsNormalized("copay", "The deductible is $500."))
}

func TestRankMetrics(t *testing.T) {
	ranked := []string{"a", "b", "c"}
	assert.Equal(t, 1.0, RecallAtK(ranked, []string{"c"}, 3))
	assert.Equal(t, 0.0, RecallAtK(ranked, []string{"c"}, 2))
	assert.Equal(t, 0.5, MRRAtK(ranked, []string{"b", "c"}, 10))
	assert.Equal(t, 0.0, MRRAtK(ranked, []string{"z"}, 10))
}

func TestReadGold(t *testing.T) {
	in := `{"id":1,"question":"What is the deductible?","answer":"The deductible is $500."}

{"id":2,"question":"q2","answer":""}
`
	gold, err := ReadGold(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, gold, 2)
	assert.True(t, gold[0].Answered())
	assert.False(t, gold[1].Answered())

	_, err = ReadGold(strings.NewReader("{bad"))
	assert.Error(t, err)
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf, 5, rand.New(rand.NewSource(1))))

	gold, err := ReadGold(&buf)
	require.NoError(t, err)
	require.Len(t, gold, 5)
	for i, g := range gold {
		assert.Equal(t, i+1, g.ID)
		assert.Contains(t, TemplatePrompts, g.Question)
		assert.False(t, g.Answered())
	}
}

type stubAsker struct {
	calls atomic.Int64
}

func (s *stubAsker) Ask(_ context.Context, question string, k int) (*client.AskResponse, error) {
	s.calls.Add(1)
	switch question {
	case "deductible":
		return &client.AskResponse{
			Answer: "The deductible is $500.",
			Docs: []client.Doc{
				{DocID: "plan:1", Text: "Other text."},
				{DocID: "plan:0", Text: "The deductible is $500. It resets yearly."},
			},
		}, nil
	case "broken":
		return nil, errors.New("503")
	default:
		return &client.AskResponse{Answer: "No answer found."}, nil
	}
}

func TestRunnerRun(t *testing.T) {
	gold := []GoldRecord{
		{ID: 1, Question: "deductible", Answer: "The deductible is $500.", DocIDs: []string{"plan:0"}},
		{ID: 2, Question: "unknown", Answer: "Vision is covered."},
		{ID: 3, Question: "broken", Answer: "x"},
		{ID: 4, Question: "skipped", Answer: ""},
	}
	asker := &stubAsker{}
	rep, err := NewRunner(asker, 5, 3).Run(context.Background(), gold)
	require.NoError(t, err)

	assert.Equal(t, int64(3), asker.calls.Load())
	assert.Equal(t, 4, rep.Total)
	assert.Equal(t, 3, rep.Used)
	assert.Equal(t, 1, rep.Errors)
	assert.Equal(t, 5, rep.K)
	assert.Equal(t, 0.5, rep.SubstringRate)
	assert.Equal(t, 0.5, rep.RecallAtK)
	assert.Equal(t, 0.5, rep.ExactMatch)
	assert.Equal(t, 1.0, rep.IDRecallAtK)
	assert.Equal(t, 0.5, rep.MRRAtK)
	assert.InDelta(t, 0.5, rep.MeanF1, 1e-9)
}
