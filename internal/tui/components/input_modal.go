package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/cineverse/internal/tui/styles"
)

const modalWidth = 44

// InputModal is a single-line prompt, used for remote search
type InputModal struct {
	visible bool
	title   string
	hint    string
	input   textinput.Model
}

// NewInputModal creates a hidden prompt
func NewInputModal() InputModal {
	ti := textinput.New()
	ti.CharLimit = 100
	ti.Width = modalWidth - 2
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return InputModal{input: ti}
}

// Show displays the prompt with a title, placeholder and initial value
func (m *InputModal) Show(title, placeholder, value string) {
	m.visible = true
	m.title = title
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

// SetHint sets the dim line under the input
func (m *InputModal) SetHint(hint string) {
	m.hint = hint
}

// Hide dismisses the prompt
func (m *InputModal) Hide() {
	m.visible = false
	m.input.Blur()
}

// IsVisible returns whether the prompt is shown
func (m InputModal) IsVisible() bool {
	return m.visible
}

// Value returns the trimmed input
func (m InputModal) Value() string {
	return strings.TrimSpace(m.input.Value())
}

// Update handles input events. submitted is true when enter was pressed.
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			return m, nil, true
		case "esc":
			m.Hide()
			return m, nil, false
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

// View renders the prompt
func (m InputModal) View() string {
	if !m.visible {
		return ""
	}

	line := lipgloss.NewStyle().
		Width(modalWidth).
		Background(styles.SlateDark)

	rows := []string{
		line.Foreground(styles.White).Bold(true).Render(m.title),
		line.Render(""),
		line.Render(m.input.View()),
	}
	if m.hint != "" {
		rows = append(rows, line.Render(""), line.Foreground(styles.DimGray).Render(m.hint))
	}

	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
