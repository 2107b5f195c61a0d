package replies

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"forumhub/internal/cli/render"
	"forumhub/internal/cli/session"
)

var RepliesCmd = &cobra.Command{
	Use:     "replies",
	Aliases: []string{"r"},
	Short:   "Read and post replies on a question",
}

var showCmd = &cobra.Command{
	Use:     "show <question-id>",
	Aliases: []string{"list"},
	Short:   "Show a question and its replies",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), session.Timeout())
		defer cancel()

		d, err := session.OpenDetail(ctx, cmd.ErrOrStderr(), args[0])
		if err != nil {
			return err
		}
		defer d.Close()

		replies, err := d.View.NextReplies(ctx)
		if err != nil {
			return fmt.Errorf("failed to load replies: %w", err)
		}

		now := time.Now()
		out := cmd.OutOrStdout()
		render.Question(out, d.Shown.Question, d.Shown.State, now)
		fmt.Fprintln(out)
		render.Replies(out, replies, d.UserID, now)
		return nil
	},
}

var postCmd = &cobra.Command{
	Use:   "post <question-id> <reply>",
	Short: "Reply to a question",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), session.Timeout())
		defer cancel()

		d, err := session.OpenDetail(ctx, cmd.ErrOrStderr(), args[0])
		if err != nil {
			return err
		}
		defer d.Close()

		reply, err := d.SubmitReply(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Reply posted (id %s)\n", reply.ID)
		return nil
	},
}

var likeCmd = &cobra.Command{
	Use:   "like <question-id> <reply-id>",
	Short: "Toggle your like on a reply",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), session.Timeout())
		defer cancel()

		d, err := session.OpenDetail(ctx, cmd.ErrOrStderr(), args[0])
		if err != nil {
			return err
		}
		defer d.Close()

		replies, err := d.View.NextReplies(ctx)
		if err != nil {
			return fmt.Errorf("failed to load replies: %w", err)
		}
		for _, r := range replies {
			if r.ID != args[1] {
				continue
			}
			if err := d.LikeReply(ctx, r); err != nil {
				return err
			}
			if r.IsLikedBy(d.UserID) {
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Like removed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Reply liked")
			}
			return nil
		}
		return fmt.Errorf("reply %s not found on question %s", args[1], args[0])
	},
}

func init() {
	RepliesCmd.AddCommand(showCmd, postCmd, likeCmd)
}
