package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"forumhub/internal/cli/session"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display current forum CLI configuration and connection settings",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Forum CLI Configuration:")
		fmt.Println("")
		fmt.Printf("Server:\n")
		fmt.Printf("  URL: %s\n", session.ServerURL())
		fmt.Printf("  Timeout: %s\n", viper.GetDuration("timeout"))
		fmt.Printf("  Config file: %s\n", session.ConfigPath())
		fmt.Println("")

		email := viper.GetString("user.email")
		token := viper.GetString("user.token")

		if email != "" && token != "" {
			fmt.Printf("User:\n")
			fmt.Printf("  Email: %s\n", email)
			fmt.Printf("  ID: %s\n", viper.GetString("user.id"))
			if len(token) > 20 {
				fmt.Printf("  Token: %s...\n", token[:20])
			} else {
				fmt.Printf("  Token: %s\n", token)
			}
			fmt.Printf("  Status: ✓ Logged in\n")
		} else {
			fmt.Printf("User: Not logged in\n")
			fmt.Printf("  Run 'forum auth login' to authenticate\n")
		}
	},
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value such as server.host, server.http_port or timeout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		viper.Set(args[0], args[1])
		path, err := session.Persist()
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s = %s (saved to %s)\n", args[0], args[1], path)
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(showCmd, setCmd)
}
