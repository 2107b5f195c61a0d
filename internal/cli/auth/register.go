package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"forumhub/internal/cli/session"
	"forumhub/pkg/models"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	Long:  "Create a new forum account and sign in with it",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		phone, _ := cmd.Flags().GetString("phone")

		if email == "" {
			email = prompt("Email: ")
		}
		if name == "" {
			name = prompt("Full name: ")
		}

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		_, client, _ := session.Connect()
		resp, err := client.Register(cmd.Context(), models.RegisterRequest{
			Email:       email,
			Password:    password,
			FullName:    name,
			PhoneNumber: phone,
		})
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		path, err := session.Save(resp.User, resp.Token)
		if err != nil {
			return err
		}

		fmt.Println("✓ Account created successfully!")
		fmt.Printf("  Email: %s\n", resp.User.Email)
		fmt.Printf("  Token saved to: %s\n", path)
		return nil
	},
}

func init() {
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("name", "", "Full name shown on your posts")
	registerCmd.Flags().String("phone", "", "Phone number")
	AuthCmd.AddCommand(registerCmd)
}
