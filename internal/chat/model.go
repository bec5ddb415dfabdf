// Package chat is a terminal chat client for the QA service built on
// Bubble Tea.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/client"
)

const (
	maxSources    = 3
	maxSourceText = 400
)

// Asker is the subset of client.Client the chat needs.
type Asker interface {
	Ask(ctx context.Context, question string, k int) (*client.AskResponse, error)
}

type exchange struct {
	question string
	resp     *client.AskResponse
	err      error
}

// answerMsg carries the result of an asynchronous ask.
type answerMsg struct {
	question string
	resp     *client.AskResponse
	err      error
}

// Model is the Bubble Tea model for the chat UI.
type Model struct {
	asker    Asker
	k        int
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	history  []exchange
	status   string
	pending  bool
	ready    bool
}

// New creates a chat model that asks with k snippets per question.
func New(asker Asker, k int, target string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 500
	return Model{
		asker:    asker,
		k:        k,
		timeout:  30 * time.Second,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Connected to " + target,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptStyle.GetFrameSize()
		_, qh := inputStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input box, input line
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil

	case answerMsg:
		m.pending = false
		m.history = append(m.history, exchange{question: msg.question, resp: msg.resp, err: msg.err})
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Answered in %.1f ms", msg.resp.LatencyMs)
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending {
				return m, nil
			}
			m.input.SetValue("")
			m.pending = true
			m.status = "Thinking..."
			return m, m.ask(q)
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("RAG QA (BM25 + boost)")
	status := statusStyle.Render(m.status)
	return header + "\n" + transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" + status
}

func (m Model) ask(question string) tea.Cmd {
	asker, k, timeout := m.asker, m.k, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := asker.Ask(ctx, question, k)
		return answerMsg{question: question, resp: resp, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderTranscript(m.history))
	m.viewport.GotoBottom()
}

// renderTranscript renders every exchange: the question, the answer and up
// to three sources.
func renderTranscript(history []exchange) string {
	if len(history) == 0 {
		return mutedStyle.Render("No questions yet.")
	}
	var b strings.Builder
	for i, ex := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(questionStyle.Render("Q: " + ex.question))
		b.WriteString("\n")
		if ex.err != nil {
			b.WriteString(errorStyle.Render("Error: " + ex.err.Error()))
			b.WriteString("\n")
			continue
		}
		b.WriteString(answerStyle.Render("A: " + ex.resp.Answer))
		b.WriteString("\n")
		b.WriteString(RenderSources(ex.resp.Docs))
	}
	return b.String()
}

// RenderSources lists up to three docs with their id and score, each text
// truncated to 400 characters.
func RenderSources(docs []client.Doc) string {
	if len(docs) == 0 {
		return mutedStyle.Render("(no sources)") + "\n"
	}
	var b strings.Builder
	b.WriteString(mutedStyle.Render("Sources:"))
	b.WriteString("\n")
	for i, d := range docs {
		if i == maxSources {
			break
		}
		fmt.Fprintf(&b, "- %s score=%.3f\n  %s\n", d.DocID, d.Score, Truncate(d.Text, maxSourceText))
	}
	return b.String()
}

// Truncate shortens s to n characters, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	answerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
