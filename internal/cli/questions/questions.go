package questions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"forumhub/internal/cli/render"
	"forumhub/internal/cli/session"
	"forumhub/internal/forum"
)

var QuestionsCmd = &cobra.Command{
	Use:     "questions",
	Aliases: []string{"q"},
	Short:   "Browse and ask forum questions",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List questions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := context.WithTimeout(cmd.Context(), session.Timeout())
		defer cancel()

		list, view, err := session.OpenList(ctx, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to load questions: %w", err)
		}
		defer list.Unsubscribe()

		qs, err := view.Next(ctx)
		if err != nil {
			return fmt.Errorf("failed to load questions: %w", err)
		}
		if limit > 0 && len(qs) > limit {
			qs = qs[:limit]
		}
		render.Questions(cmd.OutOrStdout(), qs, time.Now())
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a new question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		ctx, cancel := context.WithTimeout(cmd.Context(), session.Timeout())
		defer cancel()

		s, st, err := session.RequireLogin()
		if err != nil {
			return err
		}
		list := forum.NewQuestionList(st, s, render.NewListView(cmd.ErrOrStderr()))
		q, err := list.Submit(ctx, strings.Join(args, " "), description)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Question posted (id %s)\n", q.ID)
		return nil
	},
}

func react(like bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), session.Timeout())
		defer cancel()

		d, err := session.OpenDetail(ctx, cmd.ErrOrStderr(), args[0])
		if err != nil {
			return err
		}
		defer d.Close()

		if like {
			err = d.LikeQuestion(ctx)
		} else {
			err = d.DislikeQuestion(ctx)
		}
		if err != nil {
			return err
		}

		shown, err := d.View.NextQuestion(ctx)
		if err != nil {
			return err
		}
		render.Question(cmd.OutOrStdout(), shown.Question, shown.State, time.Now())
		return nil
	}
}

var likeCmd = &cobra.Command{
	Use:   "like <question-id>",
	Short: "Toggle your like on a question",
	Args:  cobra.ExactArgs(1),
	RunE:  react(true),
}

var dislikeCmd = &cobra.Command{
	Use:   "dislike <question-id>",
	Short: "Toggle your dislike on a question",
	Args:  cobra.ExactArgs(1),
	RunE:  react(false),
}

func init() {
	listCmd.Flags().Int("limit", 0, "Show at most this many questions")
	askCmd.Flags().StringP("description", "d", "", "Longer description")
	QuestionsCmd.AddCommand(listCmd, askCmd, likeCmd, dislikeCmd)
}
