package components

import (
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"forumhub/internal/tui/styles"
)

const defaultCharLimit = 200

// Input is a labelled post field. It shows the controller's field error
// under the text until the user types again.
type Input struct {
	field    textinput.Model
	label    string
	fieldErr string
	required bool
}

// NewInput creates an input with the given label and placeholder
func NewInput(label, placeholder string) Input {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = defaultCharLimit
	ti.Width = 40
	return Input{field: ti, label: label}
}

func (i *Input) Focus() tea.Cmd { return i.field.Focus() }
func (i *Input) Blur()          { i.field.Blur() }
func (i Input) Focused() bool   { return i.field.Focused() }
func (i Input) Value() string   { return i.field.Value() }

// SetCharLimit caps the input length
func (i *Input) SetCharLimit(n int) {
	i.field.CharLimit = n
}

// SetWidth sets the visible width
func (i *Input) SetWidth(w int) {
	if w < 10 {
		w = 10
	}
	i.field.Width = w
}

// SetRequired adds a marker after the label
func (i *Input) SetRequired(required bool) {
	i.required = required
}

// SetError shows a field error
func (i *Input) SetError(msg string) {
	i.fieldErr = msg
}

// Error returns the field error being shown
func (i Input) Error() string {
	return i.fieldErr
}

// Reset clears the text and the field error
func (i *Input) Reset() {
	i.field.Reset()
	i.fieldErr = ""
}

// Update passes msg to the text field. Any edit clears the field error.
func (i *Input) Update(msg tea.Msg) tea.Cmd {
	before := i.field.Value()
	var cmd tea.Cmd
	i.field, cmd = i.field.Update(msg)
	if i.field.Value() != before {
		i.fieldErr = ""
	}
	return cmd
}

// View renders the label, the field, a length counter while focused and
// the field error
func (i Input) View() string {
	labelStyle, fieldStyle := styles.InputPromptStyle, styles.InputStyle
	if i.Focused() {
		labelStyle, fieldStyle = styles.InputFocusedStyle, styles.InputFocusedStyle
	}

	label := labelStyle.Render(i.label)
	if i.required {
		label += " " + styles.ErrorStyle.Render("*")
	}
	if i.Focused() && i.field.CharLimit > 0 {
		label += " " + styles.HelpStyle.Render(fmt.Sprintf("%d/%d", utf8.RuneCountInString(i.field.Value()), i.field.CharLimit))
	}

	out := label + "\n" + fieldStyle.Render(i.field.View())
	if i.fieldErr != "" {
		out += "\n" + styles.ErrorStyle.Render("✗ "+i.fieldErr)
	}
	return out
}
