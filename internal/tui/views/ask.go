package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"forumhub/internal/forum"
	"forumhub/internal/tui/components"
	"forumhub/internal/tui/styles"
)

const (
	askFieldTitle = iota
	askFieldDescription
	askFieldSubmit
	askFieldCount
)

// AskModel is the ask-a-question form
type AskModel struct {
	list forum.QuestionList

	title       components.Input
	description components.Input
	submit      components.Button
	focusIndex  int
	notice      string

	width int
}

// NewAskModel creates the ask screen over list
func NewAskModel(list forum.QuestionList) AskModel {
	title := components.NewInput("Question", "What do you want to ask?")
	title.SetRequired(true)
	description := components.NewInput("Description", "Optional details")
	description.SetCharLimit(1000)

	return AskModel{
		list:        list,
		title:       title,
		description: description,
		submit:      components.NewButton("Post question"),
	}
}

// Reset clears the form for a new question
func (m *AskModel) Reset() tea.Cmd {
	m.title.Reset()
	m.description.Reset()
	m.submit.SetEnabled(true)
	m.notice = ""
	m.focusIndex = askFieldTitle
	return m.updateFocus()
}

// Update handles messages
func (m AskModel) Update(msg tea.Msg) (AskModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 20 {
			m.title.SetWidth(msg.Width - 20)
			m.description.SetWidth(msg.Width - 20)
		}
		return m, nil

	case AskFieldErrorMsg:
		if msg.Field == forum.FieldQuestion {
			m.title.SetError(msg.Message)
		}
		return m, nil

	case AskSubmitEnabledMsg:
		m.submit.SetEnabled(msg.Enabled)
		return m, nil

	case ListNoticeMsg:
		m.notice = msg.Text
		return m, nil

	case QuestionPostedMsg:
		cmd := m.Reset()
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			return m, func() tea.Msg { return CancelAskMsg{} }

		case key.Matches(msg, key.NewBinding(key.WithKeys("tab", "down"))):
			m.focusIndex = (m.focusIndex + 1) % askFieldCount
			cmd := m.updateFocus()
			return m, cmd

		case key.Matches(msg, key.NewBinding(key.WithKeys("shift+tab", "up"))):
			m.focusIndex = (m.focusIndex + askFieldCount - 1) % askFieldCount
			cmd := m.updateFocus()
			return m, cmd

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if m.focusIndex == askFieldTitle {
				m.focusIndex = askFieldDescription
				cmd := m.updateFocus()
				return m, cmd
			}
			return m, m.post()
		}
	}

	var cmd tea.Cmd
	switch m.focusIndex {
	case askFieldTitle:
		cmd = m.title.Update(msg)
	case askFieldDescription:
		cmd = m.description.Update(msg)
	}
	return m, cmd
}

// post hands the form to the controller, which validates it and reports back
// through the bridge
func (m AskModel) post() tea.Cmd {
	if !m.submit.Enabled() {
		return nil
	}
	list := m.list
	title, description := m.title.Value(), m.description.Value()
	return write(func(ctx context.Context) error {
		_, err := list.Submit(ctx, title, description)
		return err
	})
}

func (m *AskModel) updateFocus() tea.Cmd {
	m.title.Blur()
	m.description.Blur()
	m.submit.SetFocused(m.focusIndex == askFieldSubmit)
	switch m.focusIndex {
	case askFieldTitle:
		return m.title.Focus()
	case askFieldDescription:
		return m.description.Focus()
	}
	return nil
}

// View renders the form
func (m AskModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("❓ Ask a question"))
	b.WriteString("\n\n")

	var form strings.Builder
	form.WriteString(m.title.View())
	form.WriteString("\n\n")
	form.WriteString(m.description.View())
	form.WriteString("\n\n")
	form.WriteString(m.submit.View())
	b.WriteString(styles.CardStyle.Render(form.String()))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(noticeStyle(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("tab next field • enter post • esc cancel"))
	return b.String()
}

// Messages

// CancelAskMsg closes the ask screen without posting
type CancelAskMsg struct{}
