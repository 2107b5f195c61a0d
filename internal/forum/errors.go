package forum

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated  = errors.New("not signed in")
	ErrNoQuestion        = errors.New("question not loaded")
	ErrAlreadySubscribed = errors.New("listener already attached")
	ErrReplyCountStale   = errors.New("reply posted but reply count not updated")
)

// ValidationError rejects a form before anything is sent to the store
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Notices shown to the user
const (
	NoticeLoginRequired   = "Please login first"
	NoticeEnterQuestion   = "Please enter a question"
	NoticeEnterReply      = "Please enter a reply"
	NoticeQuestionPosted  = "Question posted successfully"
	NoticeQuestionFailed  = "Failed to post question"
	NoticeReplyPosted     = "Reply posted successfully"
	NoticeReplyFailed     = "Failed to post reply"
	NoticeReactionFailed  = "Failed to update reaction"
	NoticeLoadQuestions   = "Failed to load questions"
	NoticeLoadQuestion    = "Failed to load question"
	NoticeLoadReplies     = "Failed to load replies"
	NoticeQuestionMissing = "Question not found"
)

// Form fields that can carry a validation error
const (
	FieldQuestion = "question"
	FieldReply    = "reply"
)
