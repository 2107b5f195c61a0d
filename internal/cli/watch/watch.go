package watch

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"forumhub/internal/cli/render"
	"forumhub/internal/cli/session"
)

var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream the question list as it changes",
	Long:  "Print the question list every time it changes until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		list, view, err := session.OpenList(ctx, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}
		defer list.Unsubscribe()

		out := cmd.OutOrStdout()
		for {
			qs, err := view.Next(ctx)
			if errors.Is(err, render.ErrListStopped) {
				return err
			}
			if err != nil {
				// interrupted
				return nil
			}
			fmt.Fprintf(out, "── %s ──\n", time.Now().Format("15:04:05"))
			render.Questions(out, qs, time.Now())
		}
	},
}
