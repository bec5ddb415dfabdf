package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/client"
)

type fakeAsker struct {
	err error
	k   int
}

func (f *fakeAsker) Ask(_ context.Context, question string, k int) (*client.AskResponse, error) {
	f.k = k
	if f.err != nil {
		return nil, f.err
	}
	return &client.AskResponse{
		Answer:    "The deductible is the amount you pay before coverage starts.",
		LatencyMs: 1.2,
		Docs: []client.Doc{
			{DocID: "plan:0", Text: strings.Repeat("d", 450), Score: 2.34567},
			{DocID: "plan:1", Text: "b", Score: 1},
			{DocID: "plan:2", Text: "c", Score: 0.5},
			{DocID: "plan:3", Text: "hidden", Score: 0.1},
		},
	}, nil
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 400))
	got := Truncate(strings.Repeat("é", 401), 400)
	assert.Equal(t, strings.Repeat("é", 400)+"…", got)
}

func TestRenderSourcesLimitsToThree(t *testing.T) {
	resp, _ := (&fakeAsker{}).Ask(context.Background(), "q", 5)
	out := RenderSources(resp.Docs)

	assert.Contains(t, out, "plan:0 score=2.346")
	assert.Contains(t, out, "plan:2 score=0.500")
	assert.NotContains(t, out, "plan:3")
	assert.Contains(t, out, strings.Repeat("d", 400)+"…")
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func TestAskFlow(t *testing.T) {
	asker := &fakeAsker{}
	m := sized(t, New(asker, 3, "http://localhost:8000"))
	m.input.SetValue("What is the deductible?")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.pending)
	assert.Empty(t, m.input.Value())

	msg := cmd()
	next, _ = m.Update(msg)
	m = next.(Model)

	assert.False(t, m.pending)
	assert.Equal(t, 3, asker.k)
	require.Len(t, m.history, 1)
	assert.Contains(t, m.status, "Answered")
	assert.Contains(t, renderTranscript(m.history), "A: The deductible is the amount you pay before coverage starts.")
}

func TestAskError(t *testing.T) {
	m := sized(t, New(&fakeAsker{err: errors.New("unauthorized")}, 3, "x"))
	m.input.SetValue("q")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, "Error: unauthorized", m.status)
	assert.Contains(t, renderTranscript(m.history), "Error: unauthorized")
}

func TestEnterIgnoredWhenBlank(t *testing.T) {
	m := sized(t, New(&fakeAsker{}, 3, "x"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestViewBeforeResize(t *testing.T) {
	assert.Equal(t, "Loading...", New(&fakeAsker{}, 3, "x").View())
}
