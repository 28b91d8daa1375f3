// internal/tui/model_test.go
package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwiater/mneme/internal/rag"
)

type fakeEngine struct {
	answer rag.Answer
	err    error
	asked  []string
}

func (f *fakeEngine) Answer(_ context.Context, query string, _ int) (rag.Answer, error) {
	f.asked = append(f.asked, query)
	if f.err != nil {
		return rag.Answer{}, f.err
	}
	return f.answer, nil
}

func intPtr(v int) *int { return &v }

func typeQuestion(m Model, question string) Model {
	for _, r := range question {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

// TestAskRoundTrip drives a question through the update loop: enter issues
// the async command, and its message renders the answer with citations.
func TestAskRoundTrip(t *testing.T) {
	engine := &fakeEngine{answer: rag.Answer{
		Answer:    "It evicts the least recently used entry.",
		Citations: []rag.Citation{{SourceFile: "doc.pdf", PageNum: intPtr(1)}},
	}}
	m := sized(t, New(engine, "3 chunks indexed"))
	m = typeQuestion(m, "eviction?")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected async ask command")
	}
	if !m.busy {
		t.Fatal("model should be busy while the query runs")
	}

	msg := cmd()
	if _, ok := msg.(answerMsg); !ok {
		t.Fatalf("expected answerMsg, got %T", msg)
	}
	updated, _ = m.Update(msg)
	m = updated.(Model)

	if len(engine.asked) != 1 || engine.asked[0] != "eviction?" {
		t.Fatalf("unexpected questions asked: %v", engine.asked)
	}
	view := m.View()
	if !strings.Contains(view, "least recently used") {
		t.Fatalf("answer missing from view:\n%s", view)
	}
	if !strings.Contains(view, "doc.pdf (page 1)") {
		t.Fatalf("citation missing from view:\n%s", view)
	}
	if m.busy {
		t.Fatal("model still busy after answer")
	}
}

// TestAskErrorShowsStatus verifies a failed query surfaces in the status
// line and unblocks the input.
func TestAskErrorShowsStatus(t *testing.T) {
	engine := &fakeEngine{err: errors.New("chat host down")}
	m := sized(t, New(engine, ""))
	m = typeQuestion(m, "anything")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	updated, _ = m.Update(cmd())
	m = updated.(Model)

	if m.busy {
		t.Fatal("model still busy after error")
	}
	if !strings.Contains(m.status, "chat host down") {
		t.Fatalf("error missing from status: %q", m.status)
	}
}

// TestEmptyQuestionIgnored verifies enter on a blank input does nothing.
func TestEmptyQuestionIgnored(t *testing.T) {
	engine := &fakeEngine{}
	m := sized(t, New(engine, ""))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("expected no command for empty question")
	}
	if len(engine.asked) != 0 {
		t.Fatalf("engine called for empty question: %v", engine.asked)
	}
}
