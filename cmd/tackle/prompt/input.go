package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	styleHelp  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// inputModel is a single-line text prompt. The default is shown as the
// placeholder and taken when the line is left empty.
type inputModel struct {
	title   string
	input   textinput.Model
	done    bool
	aborted bool
}

func newInputModel(title, def string) inputModel {
	ti := textinput.New()
	ti.Placeholder = def
	ti.Focus()
	ti.CharLimit = 256
	return inputModel{title: title, input: ti}
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyTab:
			// Tab fills in the default so it can be edited.
			if m.input.Value() == "" && m.input.Placeholder != "" {
				m.input.SetValue(m.input.Placeholder)
				m.input.CursorEnd()
			}
			return m, nil
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(styleTitle.Render(m.title) + "\n")
	sb.WriteString(m.input.View() + "\n")
	sb.WriteString(styleHelp.Render("[Tab] use default  [Enter] accept  [Esc] abort") + "\n")
	return sb.String()
}

// value is the answer: the typed text, or the default for an empty line.
func (m inputModel) value() string {
	if v := strings.TrimSpace(m.input.Value()); v != "" {
		return v
	}
	return m.input.Placeholder
}

func runInput(title, def string) (string, error) {
	final, err := tea.NewProgram(newInputModel(title, def)).Run()
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	m := final.(inputModel)
	if m.aborted {
		return "", ErrAborted
	}
	return m.value(), nil
}
