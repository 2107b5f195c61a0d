package models

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Question represents one forum post stored at forum_questions/<id>.
// UserName and UserEmail are copied from the author's profile when the
// question is posted and are never refreshed afterwards.
type Question struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	UserName     string          `json:"userName"`
	UserEmail    string          `json:"userEmail"`
	Question     string          `json:"question"`
	Description  string          `json:"description"`
	Timestamp    int64           `json:"timestamp"` // ms since epoch
	ReplyCount   int             `json:"replyCount"`
	LikeCount    int             `json:"likeCount"`
	DislikeCount int             `json:"dislikeCount"`
	LikedBy      map[string]bool `json:"likedBy"`
	DislikedBy   map[string]bool `json:"dislikedBy"`
}

// Reply represents one reply stored at forum_replies/<questionId>/<id>
type Reply struct {
	ID         string          `json:"id"`
	QuestionID string          `json:"questionId"`
	UserID     string          `json:"userId"`
	UserName   string          `json:"userName"`
	UserEmail  string          `json:"userEmail"`
	Reply      string          `json:"reply"`
	Timestamp  int64           `json:"timestamp"`
	LikeCount  int             `json:"likeCount"`
	LikedBy    map[string]bool `json:"likedBy"`
}

// UserProfile is the public profile stored at users/<uid>
type UserProfile struct {
	UID         string `json:"uid"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	CreatedAt   int64  `json:"createdAt"`
}

// AuthUser is what the identity provider knows about the signed-in user
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AnonymousName is used when the author's profile has no fullName field
const AnonymousName = "Anonymous"

// IsLikedBy reports whether userID currently likes the question
func (q Question) IsLikedBy(userID string) bool {
	return userID != "" && q.LikedBy[userID]
}

// IsDislikedBy reports whether userID currently dislikes the question
func (q Question) IsDislikedBy(userID string) bool {
	return userID != "" && q.DislikedBy[userID]
}

// IsLikedBy reports whether userID currently likes the reply
func (r Reply) IsLikedBy(userID string) bool {
	return userID != "" && r.LikedBy[userID]
}

// AuthorInitial returns the upper-cased first letter of the author name, "U" if empty
func AuthorInitial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "U"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}
