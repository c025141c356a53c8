package components

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrFieldRequired is returned when a required field is empty.
var ErrFieldRequired = errors.New("this field is required")

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	inputStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// TextField is a labeled single-line input identified by Key.
type TextField struct {
	Key string

	label     string
	input     textinput.Model
	required  bool
	validator func(string) error
	err       error
}

// NewTextField creates a text field. The placeholder is shown while the
// field is empty and is not part of its value.
func NewTextField(key, label, placeholder string) TextField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 40
	return TextField{Key: key, label: label, input: ti}
}

// WithValue sets the initial value.
func (t TextField) WithValue(value string) TextField {
	t.input.SetValue(value)
	return t
}

// WithRequired marks the field as required.
func (t TextField) WithRequired() TextField {
	t.required = true
	return t
}

// WithValidator sets a function run on every change and before moving on.
func (t TextField) WithValidator(fn func(string) error) TextField {
	t.validator = fn
	return t
}

func (t *TextField) Focus() tea.Cmd { return t.input.Focus() }
func (t *TextField) Blur()          { t.input.Blur() }

// Value returns the trimmed input.
func (t TextField) Value() string {
	return strings.TrimSpace(t.input.Value())
}

// Err returns the last validation error.
func (t TextField) Err() error { return t.err }

// Validate checks the current value and remembers the result for View.
func (t *TextField) Validate() error {
	t.err = nil
	switch {
	case t.required && t.Value() == "":
		t.err = ErrFieldRequired
	case t.validator != nil && t.Value() != "":
		t.err = t.validator(t.Value())
	}
	return t.err
}

// Update forwards msg to the input and revalidates.
func (t TextField) Update(msg tea.Msg) (TextField, tea.Cmd) {
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	if t.err != nil || t.validator != nil {
		_ = t.Validate()
	}
	return t, cmd
}

func (t TextField) View() string {
	var b strings.Builder
	label := t.label
	if t.required {
		label += errorStyle.Render(" *")
	}
	b.WriteString(labelStyle.Render(label))
	b.WriteString("\n")
	style := inputStyle
	if t.input.Focused() {
		style = focusedStyle
	}
	b.WriteString(style.Render(t.input.View()))
	if t.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(t.err.Error()))
	}
	return b.String()
}
