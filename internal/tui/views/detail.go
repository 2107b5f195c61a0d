package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"forumhub/internal/forum"
	"forumhub/internal/tui/components"
	"forumhub/internal/tui/styles"
	"forumhub/pkg/models"
	"forumhub/pkg/utils"
)

// DetailModel displays one question and its replies
type DetailModel struct {
	detail     forum.QuestionDetail
	questionID string
	userID     string

	question *models.Question
	state    forum.ReactionState
	replies  []models.Reply
	missing  bool
	err      error
	notice   string

	replyInput   components.Input
	submit       components.Button
	inputFocused bool
	cursor       int

	spinner components.Spinner

	width  int
	height int
}

// NewDetailModel creates an empty detail screen
func NewDetailModel() DetailModel {
	input := components.NewInput("Reply", "Write a reply...")
	input.SetCharLimit(1000)
	return DetailModel{
		replyInput: input,
		submit:     components.NewButton("Reply"),
		spinner:    components.NewSpinner("Loading question..."),
	}
}

// Open shows questionID through detail, which the screen now owns
func (m *DetailModel) Open(detail forum.QuestionDetail, questionID, userID string) tea.Cmd {
	m.detail = detail
	m.questionID = questionID
	m.userID = userID
	m.question = nil
	m.state = forum.ReactionState{}
	m.replies = nil
	m.missing = false
	m.err = nil
	m.notice = ""
	m.cursor = 0
	m.inputFocused = false
	m.replyInput.Reset()
	m.replyInput.Blur()
	m.submit.SetEnabled(true)

	return tea.Batch(m.spinner.Tick(), func() tea.Msg {
		if err := detail.Open(context.Background(), questionID); err != nil {
			return DetailErrorMsg{QuestionID: questionID, Err: err}
		}
		return nil
	})
}

// Close detaches the screen's controller
func (m *DetailModel) Close() tea.Cmd {
	detail := m.detail
	m.detail = nil
	m.questionID = ""
	if detail == nil {
		return nil
	}
	return func() tea.Msg {
		detail.Close()
		return nil
	}
}

// InputFocused reports whether keys go to the reply input
func (m DetailModel) InputFocused() bool {
	return m.inputFocused
}

// Update handles messages
func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if msg.Width > 20 {
			m.replyInput.SetWidth(msg.Width - 20)
		}
		return m, nil

	case spinner.TickMsg:
		if m.question != nil || m.missing || m.err != nil {
			return m, nil
		}
		cmd := m.spinner.Update(msg)
		return m, cmd

	case QuestionShownMsg:
		if msg.QuestionID == m.questionID {
			q := msg.Question
			m.question = &q
			m.state = msg.State
			m.missing = false
		}
		return m, nil

	case RepliesMsg:
		if msg.QuestionID == m.questionID {
			m.replies = msg.Replies
			m.clampCursor()
		}
		return m, nil

	case DetailNoticeMsg:
		if msg.QuestionID == m.questionID {
			m.notice = msg.Text
			if msg.Text == forum.NoticeQuestionMissing {
				m.missing = true
				m.question = nil
			}
		}
		return m, nil

	case ReplyFieldErrorMsg:
		if msg.QuestionID == m.questionID && msg.Field == forum.FieldReply {
			m.replyInput.SetError(msg.Message)
		}
		return m, nil

	case ReplySubmitEnabledMsg:
		if msg.QuestionID == m.questionID {
			m.submit.SetEnabled(msg.Enabled)
		}
		return m, nil

	case ReplyInputClearedMsg:
		if msg.QuestionID == m.questionID {
			m.replyInput.Reset()
			m.replyInput.Blur()
			m.inputFocused = false
			m.cursor = len(m.replies)
			m.clampCursor()
		}
		return m, nil

	case DetailErrorMsg:
		if msg.QuestionID == m.questionID {
			m.err = msg.Err
		}
		return m, nil

	case tea.KeyMsg:
		if m.inputFocused {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m DetailModel) handleInputKey(msg tea.KeyMsg) (DetailModel, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
		m.inputFocused = false
		m.replyInput.Blur()
		m.submit.SetFocused(false)
		return m, nil

	case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
		if !m.submit.Enabled() || m.detail == nil {
			return m, nil
		}
		detail, text := m.detail, m.replyInput.Value()
		return m, write(func(ctx context.Context) error {
			_, err := detail.SubmitReply(ctx, text)
			return err
		})
	}
	cmd := m.replyInput.Update(msg)
	return m, cmd
}

func (m DetailModel) handleKey(msg tea.KeyMsg) (DetailModel, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("esc", "backspace"))):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, key.NewBinding(key.WithKeys("j", "down"))):
		m.cursor++
		m.clampCursor()

	case key.Matches(msg, key.NewBinding(key.WithKeys("k", "up"))):
		m.cursor--
		m.clampCursor()

	case key.Matches(msg, key.NewBinding(key.WithKeys("c", "i"))):
		if m.question == nil {
			return m, nil
		}
		m.inputFocused = true
		m.submit.SetFocused(true)
		cmd := m.replyInput.Focus()
		return m, cmd

	case key.Matches(msg, key.NewBinding(key.WithKeys("L", "+"))):
		return m, m.react(func(ctx context.Context, d forum.QuestionDetail) error { return d.LikeQuestion(ctx) })

	case key.Matches(msg, key.NewBinding(key.WithKeys("D", "-"))):
		return m, m.react(func(ctx context.Context, d forum.QuestionDetail) error { return d.DislikeQuestion(ctx) })

	case key.Matches(msg, key.NewBinding(key.WithKeys("l"))):
		if m.cursor < len(m.replies) {
			reply := m.replies[m.cursor]
			return m, m.react(func(ctx context.Context, d forum.QuestionDetail) error { return d.LikeReply(ctx, reply) })
		}
	}
	return m, nil
}

func (m DetailModel) react(fn func(ctx context.Context, d forum.QuestionDetail) error) tea.Cmd {
	if m.detail == nil || m.question == nil {
		return nil
	}
	detail := m.detail
	return write(func(ctx context.Context) error { return fn(ctx, detail) })
}

func (m *DetailModel) clampCursor() {
	if m.cursor >= len(m.replies) {
		m.cursor = len(m.replies) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the detail view
func (m DetailModel) View() string {
	var b strings.Builder

	switch {
	case m.err != nil:
		b.WriteString(styles.ErrorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("esc back"))
		return b.String()
	case m.missing:
		b.WriteString(styles.WarningStyle.Render(forum.NoticeQuestionMissing))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("esc back"))
		return b.String()
	case m.question == nil:
		b.WriteString(m.spinner.View())
		return b.String()
	}

	now := time.Now()
	q := m.question

	b.WriteString(styles.TitleStyle.Render(q.Question))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("asked by %s · %s", q.UserName, utils.TimeAgo(q.Timestamp, now))))
	b.WriteString("\n\n")
	if q.Description != "" {
		b.WriteString(styles.CardContentStyle.Render(q.Description))
		b.WriteString("\n\n")
	}
	b.WriteString(reactionBadge("▲ Like", q.LikeCount, m.state.Liked))
	b.WriteString(" ")
	b.WriteString(reactionBadge("▼ Dislike", q.DislikeCount, m.state.Disliked))
	b.WriteString("\n")
	b.WriteString(styles.RenderDivider(50))
	b.WriteString("\n")
	b.WriteString(styles.MetaKeyStyle.Render(fmt.Sprintf("💬 Replies (%d)", len(m.replies))))
	b.WriteString("\n\n")

	b.WriteString(m.renderReplies(now))

	b.WriteString("\n")
	if m.inputFocused {
		b.WriteString(m.replyInput.View())
		b.WriteString("\n")
		b.WriteString(m.submit.View())
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(noticeStyle(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.inputFocused {
		b.WriteString(styles.HelpStyle.Render("enter submit • esc cancel"))
	} else {
		b.WriteString(styles.HelpStyle.Render("c reply • L like • D dislike • l like reply • ↑/↓ navigate • esc back"))
	}
	return b.String()
}

func (m DetailModel) renderReplies(now time.Time) string {
	if len(m.replies) == 0 {
		return styles.HelpStyle.Render("No replies yet. Press 'c' to add one!") + "\n"
	}

	var b strings.Builder
	for i, r := range m.replies {
		var content strings.Builder
		content.WriteString(styles.BadgePrimaryStyle.Render(models.AuthorInitial(r.UserName)))
		content.WriteString(" ")
		content.WriteString(styles.CardTitleStyle.Render(r.UserName))
		content.WriteString("  ")
		content.WriteString(styles.HelpStyle.Render(utils.TimeAgo(r.Timestamp, now)))
		content.WriteString("\n")
		content.WriteString(styles.CardContentStyle.Render(r.Reply))
		content.WriteString("\n")
		content.WriteString(reactionBadge("▲", r.LikeCount, r.IsLikedBy(m.userID)))

		style := styles.CardStyle
		if i == m.cursor {
			style = style.BorderForeground(lipgloss.Color(styles.Pink))
		}
		b.WriteString(style.Render(content.String()))
		b.WriteString("\n")
	}
	return b.String()
}

func reactionBadge(label string, count int, on bool) string {
	text := fmt.Sprintf("%s %d", label, count)
	if on {
		return styles.BadgeSuccessStyle.Render(text)
	}
	return styles.ButtonStyle.Render(text)
}

// Messages

// DetailErrorMsg is sent when the detail listeners cannot be attached
type DetailErrorMsg struct {
	QuestionID string
	Err        error
}

// BackMsg leaves the detail screen
type BackMsg struct{}
