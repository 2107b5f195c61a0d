// Package session holds the CLI's persisted login and server settings
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"forumhub/internal/identity"
	"forumhub/internal/remote"
	"forumhub/pkg/models"
)

var ErrNotLoggedIn = errors.New("not logged in, run 'forum auth login' first")

// ConfigPath is where login state is written
func ConfigPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".forumhub", "config.yaml")
	}
	return filepath.Join(home, ".forumhub", "config.yaml")
}

// ServerURL builds the base URL from server.host and server.http_port
func ServerURL() string {
	if url := viper.GetString("server.url"); url != "" {
		return url
	}
	return fmt.Sprintf("http://%s:%d", viper.GetString("server.host"), viper.GetInt("server.http_port"))
}

// Load restores the saved session; it is signed out when nothing is saved
func Load() *identity.Session {
	user := models.AuthUser{
		ID:    viper.GetString("user.id"),
		Email: viper.GetString("user.email"),
	}
	return identity.Restore(user, viper.GetString("user.token"))
}

// Connect returns a client and remote store bound to the saved session
func Connect() (*identity.Session, *remote.Client, *remote.Store) {
	s := Load()
	client := remote.NewClient(ServerURL(), s)
	return s, client, remote.NewStore(client)
}

// RequireLogin is Connect for commands that need a signed-in user
func RequireLogin() (*identity.Session, *remote.Store, error) {
	s, _, st := Connect()
	if _, ok := s.CurrentUser(); !ok {
		return nil, nil, ErrNotLoggedIn
	}
	return s, st, nil
}

// Save persists the user and token returned by login or register
func Save(user models.AuthUser, token string) (string, error) {
	viper.Set("user.id", user.ID)
	viper.Set("user.email", user.Email)
	viper.Set("user.token", token)
	return Persist()
}

// Clear forgets the saved login
func Clear() (string, error) {
	viper.Set("user.id", "")
	viper.Set("user.email", "")
	viper.Set("user.token", "")
	return Persist()
}

// Timeout bounds how long a command waits for the server
func Timeout() time.Duration {
	if d := viper.GetDuration("timeout"); d > 0 {
		return d
	}
	return 10 * time.Second
}

// Persist writes the current settings to ConfigPath
func Persist() (string, error) {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to save config: %w", err)
	}
	return path, nil
}
