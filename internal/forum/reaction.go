// Package forum holds the forum controllers: the question list, the question
// detail screen and the like/dislike toggle engine they share.
package forum

import (
	"forumhub/internal/store"
	"forumhub/pkg/models"
)

// Reaction is the button the user pressed
type Reaction int

const (
	ReactionLike Reaction = iota
	ReactionDislike
)

func (r Reaction) String() string {
	if r == ReactionDislike {
		return "dislike"
	}
	return "like"
}

// Field names inside a question or reply record
const (
	fieldLikedBy      = "likedBy"
	fieldDislikedBy   = "dislikedBy"
	fieldLikeCount    = "likeCount"
	fieldDislikeCount = "dislikeCount"
	fieldReplyCount   = "replyCount"
)

// ReactionState is how the current user has reacted to a question
type ReactionState struct {
	Liked    bool
	Disliked bool
}

// StateOf returns userID's reaction state for q
func StateOf(q models.Question, userID string) ReactionState {
	return ReactionState{
		Liked:    q.IsLikedBy(userID),
		Disliked: q.IsDislikedBy(userID),
	}
}

// ToggleQuestion computes the multi-path update for userID pressing r on q.
// The update is computed from q as given, which may be a stale snapshot;
// counters are written as absolute values, so concurrent toggles from the
// same base overwrite each other instead of adding up.
func ToggleQuestion(q models.Question, userID string, r Reaction) store.Fields {
	if userID == "" {
		return nil
	}

	liked := q.IsLikedBy(userID)
	disliked := q.IsDislikedBy(userID)
	fields := make(store.Fields, 4)

	switch r {
	case ReactionLike:
		flip(fields, fieldLikedBy, fieldLikeCount, userID, liked, q.LikeCount)
		if !liked && disliked {
			flip(fields, fieldDislikedBy, fieldDislikeCount, userID, true, q.DislikeCount)
		}
	case ReactionDislike:
		flip(fields, fieldDislikedBy, fieldDislikeCount, userID, disliked, q.DislikeCount)
		if !disliked && liked {
			flip(fields, fieldLikedBy, fieldLikeCount, userID, true, q.LikeCount)
		}
	}
	return fields
}

// ToggleReply computes the update for userID pressing like on rp
func ToggleReply(rp models.Reply, userID string) store.Fields {
	if userID == "" {
		return nil
	}
	fields := make(store.Fields, 2)
	flip(fields, fieldLikedBy, fieldLikeCount, userID, rp.IsLikedBy(userID), rp.LikeCount)
	return fields
}

// flip sets (or clears, when on) the user's entry in mapField and moves the
// counter by one, never below zero
func flip(fields store.Fields, mapField, countField, userID string, on bool, count int) {
	key := mapField + "/" + userID
	if on {
		fields[key] = nil
		fields[countField] = max(0, count-1)
		return
	}
	fields[key] = true
	fields[countField] = count + 1
}
