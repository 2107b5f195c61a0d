package forum

import (
	"time"

	"forumhub/pkg/models"
)

// QuestionListView renders the question list screen. Calls come from the
// controller's delivery goroutine or from the goroutine that invoked the
// controller, one at a time, and never after Unsubscribe returns. A view must
// not call back into the controller's lifecycle methods from these calls.
type QuestionListView interface {
	// ShowQuestions replaces the list; an empty list means the empty state
	ShowQuestions(questions []models.Question)
	ShowNotice(message string)
	ShowFieldError(field, message string)
	SetSubmitEnabled(enabled bool)
	// QuestionPosted is called once the new question is stored; the ask
	// screen closes here
	QuestionPosted(q models.Question)
}

// QuestionDetailView renders one question with its replies
type QuestionDetailView interface {
	ShowQuestion(q models.Question, state ReactionState)
	// ShowReplies replaces the reply list, oldest first
	ShowReplies(replies []models.Reply)
	ShowNotice(message string)
	ShowFieldError(field, message string)
	SetSubmitEnabled(enabled bool)
	ClearReplyInput()
}

// Option configures a controller
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock used to timestamp new posts
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
