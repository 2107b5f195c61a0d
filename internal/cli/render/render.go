// Package render prints forum data to a terminal and adapts the forum
// controllers' view callbacks for one-shot commands
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"forumhub/internal/forum"
	"forumhub/pkg/models"
	"forumhub/pkg/utils"
)

// Questions prints a numbered question list, newest first as given
func Questions(w io.Writer, qs []models.Question, now time.Time) {
	if len(qs) == 0 {
		fmt.Fprintln(w, "No questions yet. Ask one with 'forum questions ask'.")
		return
	}
	for i, q := range qs {
		fmt.Fprintf(w, "%2d. [%s] %s\n", i+1, models.AuthorInitial(q.UserName), q.Question)
		fmt.Fprintf(w, "    %s · %s · %d replies · +%d -%d · id %s\n",
			q.UserName, utils.TimeAgo(q.Timestamp, now), q.ReplyCount, q.LikeCount, q.DislikeCount, q.ID)
	}
}

// Question prints one question with the current user's reaction markers
func Question(w io.Writer, q models.Question, state forum.ReactionState, now time.Time) {
	fmt.Fprintf(w, "%s\n", q.Question)
	fmt.Fprintln(w, strings.Repeat("─", min(len([]rune(q.Question)), 60)))
	if q.Description != "" {
		fmt.Fprintf(w, "%s\n\n", q.Description)
	}
	fmt.Fprintf(w, "asked by %s %s\n", q.UserName, utils.TimeAgo(q.Timestamp, now))
	fmt.Fprintf(w, "%s %d   %s %d   replies %d\n",
		marker("like", state.Liked), q.LikeCount, marker("dislike", state.Disliked), q.DislikeCount, q.ReplyCount)
}

// Replies prints replies oldest first
func Replies(w io.Writer, replies []models.Reply, userID string, now time.Time) {
	if len(replies) == 0 {
		fmt.Fprintln(w, "No replies yet.")
		return
	}
	for _, r := range replies {
		fmt.Fprintf(w, "  [%s] %s · %s\n", models.AuthorInitial(r.UserName), r.UserName, utils.TimeAgo(r.Timestamp, now))
		fmt.Fprintf(w, "      %s\n", r.Reply)
		fmt.Fprintf(w, "      %s %d · id %s\n", marker("like", r.IsLikedBy(userID)), r.LikeCount, r.ID)
	}
}

func marker(label string, on bool) string {
	if on {
		return "*" + label
	}
	return label
}
