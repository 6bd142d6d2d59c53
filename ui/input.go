package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// textSubmittedMsg is sent when the user submits typed or pasted text for
// reading.
type textSubmittedMsg string

type inputModel struct {
	common   *commonModel
	textarea textarea.Model
	hint     string
}

func newInputModel(common *commonModel) inputModel {
	ta := textarea.New()
	ta.Placeholder = "Paste or type something worth reading…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	return inputModel{
		common:   common,
		textarea: ta,
	}
}

func (m *inputModel) setSize(w, h int) {
	m.textarea.SetWidth(min(max(w-8, 20), 80))
	m.textarea.SetHeight(max(min(h-8, 16), 3))
}

func (m *inputModel) focus() tea.Cmd {
	return m.textarea.Focus()
}

func (m *inputModel) setValue(s string) {
	m.textarea.SetValue(s)
}

func (m inputModel) update(msg tea.Msg) (inputModel, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	if key, ok := msg.(tea.KeyMsg); ok {
		if key.String() == "ctrl+d" {
			text := m.textarea.Value()
			if strings.TrimSpace(text) == "" {
				m.hint = "Nothing to read yet"
				return m, nil
			}
			return m, submitText(text)
		}
		m.hint = ""
	}

	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m inputModel) view() string {
	title := flitLogoView() + subtleStyle(" What shall we read?")

	footer := subtleStyle("ctrl+d start reading · esc quit")
	if m.hint != "" {
		footer = lipgloss.NewStyle().Foreground(red).Render(m.hint)
	}

	content := title + "\n\n" + m.textarea.View() + "\n\n" + footer
	return lipgloss.Place(
		m.common.width, m.common.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
}

func submitText(text string) tea.Cmd {
	return func() tea.Msg {
		return textSubmittedMsg(text)
	}
}
