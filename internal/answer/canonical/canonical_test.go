package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaultTopics(t *testing.T) {
	c := Default()

	tests := []struct {
		question string
		want     string
	}{
		{"What is the deductible?", "The deductible is the amount you pay before coverage starts."},
		{"how does COINSURANCE work", "Coinsurance is the percentage you pay after meeting the deductible."},
		{"How do I add a dependent to my plan?", "Submit the dependent enrollment form within 30 days of a qualifying event."},
		{"What is the out-of-pocket maximum?", "The most you pay in a plan year for covered services."},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got, ok := c.Apply(tt.question, "extracted")
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyFirstEntryWins(t *testing.T) {
	got, ok := Default().Apply("Does coinsurance apply before the deductible?", "x")
	require.True(t, ok)
	assert.Equal(t, "The deductible is the amount you pay before coverage starts.", got)
}

func TestApplyPassthrough(t *testing.T) {
	got, ok := Default().Apply("Who covers vision?", "Vision is covered by rider B.")
	assert.False(t, ok)
	assert.Equal(t, "Vision is covered by rider B.", got)
}

func TestNewSkipsEmptyTopicsAndLowercases(t *testing.T) {
	c := New([]Entry{{Topic: "", Answer: "never"}, {Topic: "Copay", Answer: "A fixed fee."}})
	require.Len(t, c.Entries(), 1)

	got, ok := c.Apply("what is a copay", "x")
	assert.True(t, ok)
	assert.Equal(t, "A fixed fee.", got)
}
