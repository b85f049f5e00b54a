package submodels

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	focusedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFF"))

	cursorStyle = focusedStyle.Copy()
)

// InputModel wraps a single-line text input used for the search box.
type InputModel struct {
	Title      string
	Input      textinput.Model
	cursorMode cursor.Mode
}

func NewInputModel() InputModel {
	t := textinput.New()
	t.Cursor.Style = cursorStyle
	t.PromptStyle = focusedStyle
	t.TextStyle = focusedStyle

	m := InputModel{
		Title: "",
		Input: t,
	}

	return m
}

func (m InputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m InputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m InputModel) View() string {
	var b strings.Builder
	b.WriteString(m.Input.View())
	return b.String()
}
