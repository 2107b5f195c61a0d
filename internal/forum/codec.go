package forum

import (
	"context"
	"fmt"

	"forumhub/internal/store"
	"forumhub/pkg/logger"
	"forumhub/pkg/models"
)

// DecodeQuestion decodes one question record; the id falls back to the key
func DecodeQuestion(snap store.Snapshot) (models.Question, error) {
	var q models.Question
	if err := snap.Decode(&q); err != nil {
		return models.Question{}, fmt.Errorf("decode question %s: %w", snap.Key(), err)
	}
	if q.ID == "" {
		q.ID = snap.Key()
	}
	return q, nil
}

// DecodeReply decodes one reply record; the id falls back to the key
func DecodeReply(snap store.Snapshot) (models.Reply, error) {
	var r models.Reply
	if err := snap.Decode(&r); err != nil {
		return models.Reply{}, fmt.Errorf("decode reply %s: %w", snap.Key(), err)
	}
	if r.ID == "" {
		r.ID = snap.Key()
	}
	return r, nil
}

// DecodeQuestionList decodes a timestamp-ordered question collection and
// returns it newest first. Records that fail to decode are skipped.
func DecodeQuestionList(snap store.Snapshot) []models.Question {
	children := snap.Children()
	questions := make([]models.Question, 0, len(children))
	for i := len(children) - 1; i >= 0; i-- {
		q, err := DecodeQuestion(children[i])
		if err != nil {
			logger.Warnf("Skipping question: %v", err)
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

// DecodeReplyList decodes a timestamp-ordered reply collection, oldest first
func DecodeReplyList(snap store.Snapshot) []models.Reply {
	children := snap.Children()
	replies := make([]models.Reply, 0, len(children))
	for _, child := range children {
		r, err := DecodeReply(child)
		if err != nil {
			logger.Warnf("Skipping reply: %v", err)
			continue
		}
		replies = append(replies, r)
	}
	return replies
}

// ReadAuthor reads the author fields copied onto new posts from users/<uid>
func ReadAuthor(ctx context.Context, st store.Store, userID string) (name, email string, err error) {
	snap, err := st.Read(ctx, ProfilePath(userID))
	if err != nil {
		return "", "", fmt.Errorf("read profile: %w", err)
	}

	// a stored empty name is kept; only a missing one becomes Anonymous
	name = models.AnonymousName
	var s string
	if full := snap.Child("fullName"); full.Exists() && full.Decode(&s) == nil {
		name = s
	}
	s = ""
	if err := snap.Child("email").Decode(&s); err == nil {
		email = s
	}
	return name, email, nil
}
