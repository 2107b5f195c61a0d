package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"forumhub/internal/tui/focus"
)

// KeyMap defines the key bindings shown in help; screens match their own
// keys inline
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Actions
	Enter key.Binding
	Back  key.Binding
	Quit  key.Binding
	Help  key.Binding
	Retry key.Binding

	// Forum
	Ask             key.Binding
	Like            key.Binding
	Dislike         key.Binding
	Reply           key.Binding
	LikeQuestion    key.Binding
	DislikeQuestion key.Binding

	// Input/Edit
	NextField key.Binding
	Submit    key.Binding
	Cancel    key.Binding
}

// ShouldHandleKey returns true if the app should act on the key itself
// rather than hand it to the current screen
func (k KeyMap) ShouldHandleKey(mode focus.Mode, msg tea.KeyMsg) bool {
	switch mode {
	case focus.ModeInput:
		return false
	case focus.ModeDialog:
		return key.Matches(msg, k.Help) ||
			key.Matches(msg, k.Cancel) ||
			key.Matches(msg, k.Enter) ||
			key.Matches(msg, k.Quit)
	}
	return key.Matches(msg, k.Quit) || key.Matches(msg, k.Help)
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "p"),
			key.WithHelp("pgup/p", "prev page"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "n"),
			key.WithHelp("pgdown/n", "next page"),
		),

		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),

		Ask: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "ask"),
		),
		Like: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "like"),
		),
		Dislike: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dislike"),
		),
		Reply: key.NewBinding(
			key.WithKeys("c", "i"),
			key.WithHelp("c", "reply"),
		),
		LikeQuestion: key.NewBinding(
			key.WithKeys("L", "+"),
			key.WithHelp("L", "like question"),
		),
		DislikeQuestion: key.NewBinding(
			key.WithKeys("D", "-"),
			key.WithHelp("D", "dislike question"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp returns a short help message
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Enter, k.Back, k.Help, k.Quit,
	}
}

// FullHelp returns the full help message
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Enter, k.Back, k.Retry, k.Quit},
		{k.Ask, k.Like, k.Dislike},
		{k.Reply, k.LikeQuestion, k.DislikeQuestion},
		{k.NextField, k.Submit, k.Cancel},
	}
}
