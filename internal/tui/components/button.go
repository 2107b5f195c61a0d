package components

import (
	"forumhub/internal/tui/styles"
)

// ButtonState represents button states
type ButtonState int

const (
	ButtonNormal ButtonState = iota
	ButtonDisabled
	ButtonLoading
)

// Button is a submit button; controllers disable it while a post is in flight
type Button struct {
	label   string
	state   ButtonState
	focused bool
}

// NewButton creates a new button
func NewButton(label string) Button {
	return Button{
		label: label,
		state: ButtonNormal,
	}
}

// SetFocused highlights the button
func (b *Button) SetFocused(focused bool) {
	b.focused = focused
}

// Enabled reports whether pressing the button does anything
func (b Button) Enabled() bool {
	return b.state == ButtonNormal
}

// SetEnabled maps a controller's submit toggle onto the button state
func (b *Button) SetEnabled(enabled bool) {
	if enabled {
		b.state = ButtonNormal
	} else {
		b.state = ButtonLoading
	}
}

// View renders the button
func (b Button) View() string {
	switch b.state {
	case ButtonDisabled:
		return styles.HelpStyle.Render("[ " + b.label + " ]")
	case ButtonLoading:
		return styles.ButtonActiveStyle.Render("[ ⟳ " + b.label + "... ]")
	}
	if b.focused {
		return styles.ButtonActiveStyle.Render("[ " + b.label + " ]")
	}
	return styles.ButtonStyle.Render("[ " + b.label + " ]")
}
