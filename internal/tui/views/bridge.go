package views

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"forumhub/internal/forum"
	"forumhub/pkg/logger"
	"forumhub/pkg/models"
	"forumhub/pkg/utils"
)

// Sender delivers a message into the running program. *tea.Program fits.
type Sender interface {
	Send(msg tea.Msg)
}

// ListBridge turns QuestionList callbacks into program messages
type ListBridge struct {
	sender Sender
}

var _ forum.QuestionListView = (*ListBridge)(nil)

func NewListBridge(sender Sender) *ListBridge {
	return &ListBridge{sender: sender}
}

func (b *ListBridge) ShowQuestions(qs []models.Question) {
	b.sender.Send(QuestionsMsg{Questions: qs})
}

func (b *ListBridge) ShowNotice(message string) {
	b.sender.Send(ListNoticeMsg{Text: message})
}

func (b *ListBridge) ShowFieldError(field, message string) {
	b.sender.Send(AskFieldErrorMsg{Field: field, Message: message})
}

func (b *ListBridge) SetSubmitEnabled(enabled bool) {
	b.sender.Send(AskSubmitEnabledMsg{Enabled: enabled})
}

func (b *ListBridge) QuestionPosted(q models.Question) {
	b.sender.Send(QuestionPostedMsg{Question: q})
}

// DetailBridge turns QuestionDetail callbacks into program messages. Every
// message carries the question id so a screen can drop output from a
// controller it has already left.
type DetailBridge struct {
	sender     Sender
	questionID string
}

var _ forum.QuestionDetailView = (*DetailBridge)(nil)

func NewDetailBridge(sender Sender, questionID string) *DetailBridge {
	return &DetailBridge{sender: sender, questionID: questionID}
}

func (b *DetailBridge) ShowQuestion(q models.Question, state forum.ReactionState) {
	b.sender.Send(QuestionShownMsg{QuestionID: b.questionID, Question: q, State: state})
}

func (b *DetailBridge) ShowReplies(replies []models.Reply) {
	b.sender.Send(RepliesMsg{QuestionID: b.questionID, Replies: replies})
}

func (b *DetailBridge) ShowNotice(message string) {
	b.sender.Send(DetailNoticeMsg{QuestionID: b.questionID, Text: message})
}

func (b *DetailBridge) ShowFieldError(field, message string) {
	b.sender.Send(ReplyFieldErrorMsg{QuestionID: b.questionID, Field: field, Message: message})
}

func (b *DetailBridge) SetSubmitEnabled(enabled bool) {
	b.sender.Send(ReplySubmitEnabledMsg{QuestionID: b.questionID, Enabled: enabled})
}

func (b *DetailBridge) ClearReplyInput() {
	b.sender.Send(ReplyInputClearedMsg{QuestionID: b.questionID})
}

// Messages

// QuestionsMsg replaces the forum list
type QuestionsMsg struct {
	Questions []models.Question
}

// ListNoticeMsg is a transient notice from the list controller
type ListNoticeMsg struct {
	Text string
}

// AskFieldErrorMsg marks an ask-form field invalid
type AskFieldErrorMsg struct {
	Field   string
	Message string
}

// AskSubmitEnabledMsg toggles the ask-form submit button
type AskSubmitEnabledMsg struct {
	Enabled bool
}

// QuestionPostedMsg closes the ask screen
type QuestionPostedMsg struct {
	Question models.Question
}

// QuestionShownMsg updates the open question
type QuestionShownMsg struct {
	QuestionID string
	Question   models.Question
	State      forum.ReactionState
}

// RepliesMsg replaces the open question's replies
type RepliesMsg struct {
	QuestionID string
	Replies    []models.Reply
}

// DetailNoticeMsg is a transient notice from the detail controller
type DetailNoticeMsg struct {
	QuestionID string
	Text       string
}

// ReplyFieldErrorMsg marks the reply input invalid
type ReplyFieldErrorMsg struct {
	QuestionID string
	Field      string
	Message    string
}

// ReplySubmitEnabledMsg toggles the reply submit button
type ReplySubmitEnabledMsg struct {
	QuestionID string
	Enabled    bool
}

// ReplyInputClearedMsg empties the reply input after a successful post
type ReplyInputClearedMsg struct {
	QuestionID string
}

// write runs a controller write off the update loop, since the controller
// calls back into the bridge. Failures already reach the screen as notices.
func write(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := utils.WithTimeout(context.Background())
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Debugf("forum write failed: %v", err)
		}
		return nil
	}
}
