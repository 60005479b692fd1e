package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/findash/internal/report"
)

// assistantPanel is the question box and the latest answer.
type assistantPanel struct {
	err      error
	question string
	answer   string
	open     bool
	asking   bool
}

func (p assistantPanel) answered(msg assistantAnswerMsg) assistantPanel {
	p.asking = false
	p.question = msg.question
	p.answer = msg.answer
	p.err = msg.err
	return p
}

// handleAssistantKey routes keys to the question box while the panel is open.
func (m Model) handleAssistantKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Close):
		m.panel.open = false
		m.prompt.Blur()
		return m, nil

	case key.Matches(msg, m.keymap.Submit):
		question := strings.TrimSpace(m.prompt.Value())
		if question == "" || m.panel.asking || m.assistant == nil {
			return m, nil
		}
		m.panel.asking = true
		m.panel.question = question
		m.panel.answer = ""
		m.panel.err = nil
		m.prompt.Reset()
		return m, m.askCmd(question)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// askCmd asks the assistant off the update loop, about the data on screen.
func (m Model) askCmd(question string) tea.Cmd {
	ctx := m.ctx
	assistant := m.assistant
	state := m.state.Clone()
	return func() tea.Msg {
		answer, err := assistant.Ask(ctx, state, question)
		return assistantAnswerMsg{question: question, answer: answer, err: err}
	}
}

func (m Model) assistantView() string {
	lines := []string{m.theme.Title.Render("Assistant")}

	if m.assistant == nil {
		lines = append(lines,
			m.theme.Subtitle.Render("The assistant is not configured. Set assistant.api_key (or the provider's API key variable) and restart."),
			m.theme.Subtitle.Render("Esc to close"))
		return m.theme.RoundedBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	}

	if m.panel.question != "" {
		lines = append(lines, m.theme.Normal.Render("Q: "+m.panel.question))
	}
	switch {
	case m.panel.asking:
		lines = append(lines, m.spinner.View()+" Thinking...")
	case m.panel.err != nil:
		lines = append(lines, m.theme.StatusError.Render("The assistant could not answer: "+m.panel.err.Error()))
	case m.panel.answer != "":
		width := m.width - 8
		if width < 20 {
			width = 20
		}
		rendered, err := report.Render(m.panel.answer, width)
		if err != nil {
			rendered = m.panel.answer
		}
		lines = append(lines, strings.TrimRight(rendered, "\n"))
	}

	lines = append(lines, "", m.prompt.View(), m.theme.Subtitle.Render("Enter to send · Esc to close"))
	return m.theme.RoundedBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
