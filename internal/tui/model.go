// internal/tui/model.go
// Package tui is the interactive ask session: a question box over a
// scrollable answer pane, backed by the retrieval engine.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/mneme/internal/rag"
	"github.com/mwiater/mneme/internal/util"
)

// AskPort is the TUI-facing subset of the retrieval engine.
type AskPort interface {
	Answer(ctx context.Context, query string, topK int) (rag.Answer, error)
}

type answerMsg struct {
	question string
	answer   rag.Answer
}

type errMsg struct{ err error }

// Model is the Bubble Tea model for the ask session.
type Model struct {
	engine   AskPort
	input    textinput.Model
	viewport viewport.Model
	status   string
	busy     bool
	ready    bool
	width    int
}

// New creates the ask session model.
func New(engine AskPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{engine: engine, input: ti, viewport: vp, status: summary}
}

// Init starts the input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := questionBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, question box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = util.Max(20, msg.Width)
		m.viewport.Height = util.Max(3, vh-ah)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.String() == "esc" {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.busy {
			question := strings.TrimSpace(m.input.Value())
			if question != "" {
				m.busy = true
				m.status = "Thinking..."
				m.input.Reset()
				return m, askCmd(m.engine, question)
			}
		}
	case answerMsg:
		m.busy = false
		m.status = fmt.Sprintf("Answered %q", msg.question)
		m.viewport.SetContent(m.renderAnswer(msg.question, msg.answer))
		m.viewport.GotoTop()
		return m, nil
	case errMsg:
		m.busy = false
		m.status = "Error: " + msg.err.Error()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the session layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("mneme ask")
	answer := answerBoxStyle.Render(m.viewport.View())
	question := questionBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + answer + "\n" + question + "\n" + status
}

func (m Model) renderAnswer(question string, answer rag.Answer) string {
	width := util.Max(20, m.width-4)
	var b strings.Builder
	b.WriteString(questionStyle.Render("Q: " + question))
	b.WriteString("\n\n")
	b.WriteString(util.WrapToWidth(answer.Answer, width))
	if len(answer.Citations) > 0 {
		b.WriteString("\n\n")
		b.WriteString(citationHeaderStyle.Render("Sources"))
		for _, citation := range answer.Citations {
			page := "N/A"
			if citation.PageNum != nil {
				page = fmt.Sprintf("%d", *citation.PageNum)
			}
			b.WriteString(fmt.Sprintf("\n  %s (page %s)", citation.SourceFile, page))
		}
	}
	return b.String()
}

// askCmd runs the query off the update loop so the UI stays responsive.
func askCmd(engine AskPort, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := engine.Answer(context.Background(), question, 0)
		if err != nil {
			return errMsg{err: err}
		}
		return answerMsg{question: question, answer: answer}
	}
}

// Run starts the interactive session and blocks until it exits.
func Run(engine AskPort, summary string) error {
	_, err := tea.NewProgram(New(engine, summary), tea.WithAltScreen()).Run()
	return err
}

var (
	headerStyle         = lipgloss.NewStyle().Bold(true)
	statusStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	citationHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	answerBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
