package components

import (
	tea "github.com/charmbracelet/bubbletea"

	"forumhub/internal/tui/styles"
)

// ErrorView replaces a screen whose listener stopped. Retry hands back the
// command that listens again.
type ErrorView struct {
	err     error
	message string
	onRetry tea.Cmd
}

// NewErrorView creates a new error view
func NewErrorView(err error, message string, onRetry tea.Cmd) ErrorView {
	return ErrorView{err: err, message: message, onRetry: onRetry}
}

func (e *ErrorView) Clear()        { *e = ErrorView{} }
func (e ErrorView) HasError() bool { return e.err != nil }
func (e ErrorView) Retry() tea.Cmd { return e.onRetry }

// View renders the error card, or nothing when there is no error
func (e ErrorView) View() string {
	if !e.HasError() {
		return ""
	}

	body := styles.ErrorStyle.Render("⚠ "+e.message) + "\n\n" +
		styles.HelpStyle.Render(e.err.Error())
	if e.onRetry != nil {
		body += "\n\n" + styles.ButtonStyle.Render("[ r ] Retry")
	}
	return styles.CardStyle.Render(body)
}
