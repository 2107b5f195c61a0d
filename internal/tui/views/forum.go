package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"forumhub/internal/forum"
	"forumhub/internal/tui/components"
	"forumhub/internal/tui/styles"
	"forumhub/pkg/models"
	"forumhub/pkg/utils"
)

var errListStopped = errors.New("the question listener was cancelled")

// ForumModel is the question list screen
type ForumModel struct {
	list     forum.QuestionList
	userID   string
	pageSize int

	questions []models.Question
	cursor    int
	loaded    bool
	notice    string

	spinner components.Spinner
	errView components.ErrorView

	width  int
	height int
}

// NewForumModel creates the list screen over list
func NewForumModel(list forum.QuestionList, pageSize int) ForumModel {
	if pageSize <= 0 {
		pageSize = 10
	}
	return ForumModel{
		list:     list,
		pageSize: pageSize,
		spinner:  components.NewSpinner("Loading questions..."),
	}
}

// SetUser sets whose reactions are highlighted
func (m *ForumModel) SetUser(userID string) {
	m.userID = userID
}

// Init attaches the listener
func (m ForumModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick(), m.subscribe(false))
}

// subscribe attaches the list listener; restart drops a dead one first
func (m ForumModel) subscribe(restart bool) tea.Cmd {
	list := m.list
	return func() tea.Msg {
		if restart {
			list.Unsubscribe()
		}
		err := list.Subscribe(context.Background())
		if err != nil && !errors.Is(err, forum.ErrAlreadySubscribed) {
			return ListErrorMsg{Err: err}
		}
		return nil
	}
}

// Update handles messages
func (m ForumModel) Update(msg tea.Msg) (ForumModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.loaded {
			return m, nil
		}
		cmd := m.spinner.Update(msg)
		return m, cmd

	case QuestionsMsg:
		m.questions = msg.Questions
		m.loaded = true
		m.errView.Clear()
		m.clampCursor()
		return m, nil

	case ListNoticeMsg:
		m.notice = msg.Text
		if msg.Text == forum.NoticeLoadQuestions {
			m.errView = components.NewErrorView(errListStopped, msg.Text, m.subscribe(true))
		}
		return m, nil

	case ListErrorMsg:
		m.loaded = true
		m.errView = components.NewErrorView(msg.Err, forum.NoticeLoadQuestions, m.subscribe(true))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m ForumModel) handleKey(msg tea.KeyMsg) (ForumModel, tea.Cmd) {
	switch {
	case key.Matches(msg, key.NewBinding(key.WithKeys("j", "down"))):
		m.cursor++
		m.clampCursor()

	case key.Matches(msg, key.NewBinding(key.WithKeys("k", "up"))):
		m.cursor--
		m.clampCursor()

	case key.Matches(msg, key.NewBinding(key.WithKeys("pgdown", "n"))):
		m.cursor += m.pageSize
		m.clampCursor()

	case key.Matches(msg, key.NewBinding(key.WithKeys("pgup", "p"))):
		m.cursor -= m.pageSize
		m.clampCursor()

	case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
		if q, ok := m.selected(); ok {
			return m, func() tea.Msg { return OpenQuestionMsg{QuestionID: q.ID} }
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("l"))):
		if q, ok := m.selected(); ok {
			list := m.list
			return m, write(func(ctx context.Context) error { return list.Like(ctx, q) })
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("d"))):
		if q, ok := m.selected(); ok {
			list := m.list
			return m, write(func(ctx context.Context) error { return list.Dislike(ctx, q) })
		}

	case key.Matches(msg, key.NewBinding(key.WithKeys("a"))):
		m.notice = ""
		return m, func() tea.Msg { return AskMsg{} }

	case key.Matches(msg, key.NewBinding(key.WithKeys("r"))):
		if m.errView.HasError() {
			retry := m.errView.Retry()
			m.errView.Clear()
			m.loaded = false
			return m, tea.Batch(m.spinner.Tick(), retry)
		}
	}
	return m, nil
}

func (m *ForumModel) clampCursor() {
	if m.cursor >= len(m.questions) {
		m.cursor = len(m.questions) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m ForumModel) selected() (models.Question, bool) {
	if m.cursor < 0 || m.cursor >= len(m.questions) {
		return models.Question{}, false
	}
	return m.questions[m.cursor], true
}

// View renders the list
func (m ForumModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("💬 Forum"))
	b.WriteString("  ")
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("%d questions", len(m.questions))))
	b.WriteString("\n\n")

	switch {
	case m.errView.HasError():
		b.WriteString(m.errView.View())
		b.WriteString("\n")
	case !m.loaded:
		b.WriteString(m.spinner.View())
		b.WriteString("\n")
	case len(m.questions) == 0:
		b.WriteString(styles.HelpStyle.Render("No questions yet. Press 'a' to ask the first one!"))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderPage(time.Now()))
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle(m.notice))
	}

	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("↑/↓ navigate • enter open • l like • d dislike • a ask • n/p page"))
	return b.String()
}

func (m ForumModel) renderPage(now time.Time) string {
	var b strings.Builder
	start := (m.cursor / m.pageSize) * m.pageSize
	end := min(start+m.pageSize, len(m.questions))

	width := 60
	if m.width > 20 {
		width = m.width - 16
	}

	for i := start; i < end; i++ {
		q := m.questions[i]
		title := styles.ListItemTitleStyle.Render(styles.Truncate(q.Question, width))
		meta := fmt.Sprintf("%s · %s · %d replies · %s %d · %s %d",
			q.UserName, utils.TimeAgo(q.Timestamp, now), q.ReplyCount,
			reactionMark("▲", q.IsLikedBy(m.userID)), q.LikeCount,
			reactionMark("▼", q.IsDislikedBy(m.userID)), q.DislikeCount)

		line := styles.BadgePrimaryStyle.Render(models.AuthorInitial(q.UserName)) + " " + title +
			"\n   " + styles.ListItemDescStyle.Render(meta)
		if i == m.cursor {
			b.WriteString(styles.ListItemSelectedStyle.Render(line))
		} else {
			b.WriteString(styles.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if pages := (len(m.questions) + m.pageSize - 1) / m.pageSize; pages > 1 {
		b.WriteString(styles.HelpStyle.Render(fmt.Sprintf("page %d of %d", start/m.pageSize+1, pages)))
		b.WriteString("\n")
	}
	return b.String()
}

func reactionMark(mark string, on bool) string {
	if on {
		return styles.HighlightStyle.Render(mark)
	}
	return mark
}

// noticeStyle colors failures red and everything else green
func noticeStyle(text string) string {
	if strings.HasPrefix(text, "Failed") || strings.HasPrefix(text, "Please") || text == forum.NoticeQuestionMissing {
		return styles.ErrorStyle.Render("✗ " + text)
	}
	return styles.SuccessStyle.Render("✓ " + text)
}

// Messages

// ListErrorMsg is sent when the list listener cannot be attached
type ListErrorMsg struct {
	Err error
}

// OpenQuestionMsg asks the app to show a question's detail screen
type OpenQuestionMsg struct {
	QuestionID string
}

// AskMsg asks the app to show the ask screen
type AskMsg struct{}
