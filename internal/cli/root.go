// Package cli is the forum command-line client
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"forumhub/internal/cli/auth"
	"forumhub/internal/cli/config"
	"forumhub/internal/cli/questions"
	"forumhub/internal/cli/replies"
	"forumhub/internal/cli/watch"
	"forumhub/pkg/logger"
	"forumhub/pkg/utils"
)

var cfgFile string

var RootCmd = &cobra.Command{
	Use:           "forum",
	Short:         "Forum command-line client",
	Long:          "Ask questions, reply and react on a forumhub server from the terminal",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.forumhub/config.yaml)")
	RootCmd.PersistentFlags().String("server", "", "server URL, overrides server.host and server.http_port")
	RootCmd.PersistentFlags().Duration("timeout", 10*time.Second, "how long to wait for the server")
	viper.BindPFlag("server.url", RootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("timeout", RootCmd.PersistentFlags().Lookup("timeout"))

	RootCmd.AddCommand(
		auth.AuthCmd,
		config.ConfigCmd,
		questions.QuestionsCmd,
		replies.RepliesCmd,
		watch.WatchCmd,
	)
}

func initConfig() error {
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("log_level", "warn")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		viper.AddConfigPath(filepath.Join(home, ".forumhub"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FORUMHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.Init(logger.Config{Level: viper.GetString("log_level"), Format: "text", Output: "stderr"})
	return nil
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := RootCmd.ExecuteContext(ctx)
	if err != nil && ctx.Err() == nil && utils.IsContextError(err) {
		fmt.Fprintln(RootCmd.ErrOrStderr(), "The server did not answer in time; try a larger --timeout")
	}
	return err
}
