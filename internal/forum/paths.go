package forum

import "forumhub/internal/store"

// Store layout shared with every other client of the forum data
const (
	QuestionsPath = "forum_questions"
	RepliesPath   = "forum_replies"
	UsersPath     = "users"
)

func QuestionPath(questionID string) string {
	return store.JoinPath(QuestionsPath, questionID)
}

func ReplyListPath(questionID string) string {
	return store.JoinPath(RepliesPath, questionID)
}

func ReplyPath(questionID, replyID string) string {
	return store.JoinPath(RepliesPath, questionID, replyID)
}

func ProfilePath(userID string) string {
	return store.JoinPath(UsersPath, userID)
}
