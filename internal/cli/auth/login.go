package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"forumhub/internal/cli/session"
	"forumhub/pkg/models"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the forum",
	Long:  "Authenticate with your email and password and save the token locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			email = prompt("Email: ")
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		_, client, _ := session.Connect()
		resp, err := client.Login(cmd.Context(), models.LoginRequest{Email: email, Password: password})
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		path, err := session.Save(resp.User, resp.Token)
		if err != nil {
			return err
		}

		fmt.Println("✓ Login successful!")
		fmt.Printf("  Welcome back, %s!\n", resp.User.Email)
		fmt.Printf("  Token saved to: %s\n", path)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved login",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := session.Clear(); err != nil {
			return err
		}
		fmt.Println("✓ Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, client, _ := session.Connect()
		if _, ok := s.CurrentUser(); !ok {
			return session.ErrNotLoggedIn
		}
		user, err := client.Me(cmd.Context())
		if err != nil {
			return fmt.Errorf("token check failed: %w", err)
		}
		fmt.Printf("%s (%s)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "Email address")
	AuthCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
