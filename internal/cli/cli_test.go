package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumhub/internal/cli/session"
	"forumhub/internal/core"
	httpProtocol "forumhub/internal/protocols/http"
	wsProtocol "forumhub/internal/protocols/websocket"
	"forumhub/internal/repository"
	"forumhub/internal/store"
	"forumhub/pkg/config"
	"forumhub/pkg/models"
)

func startServer(t *testing.T) (*httptest.Server, *models.LoginResponse) {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Mode = gin.TestMode
	cfg.RateLimit.WritesPerSecond = 0

	st := store.NewMemory()
	authSvc := core.NewAuthService(repository.NewMemoryAccountRepository(), st, "cli-secret", "forumhub-test", time.Hour)
	hub := wsProtocol.NewHub(st)
	srv := httpProtocol.NewServer(cfg, authSvc, st, nil, wsProtocol.NewHandler(hub, authSvc, nil))
	server := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		hub.Stop()
		server.Close()
	})

	resp, err := authSvc.Register(context.Background(), models.RegisterRequest{
		Email:    "cli@example.com",
		Password: "secret1",
		FullName: "Cli User",
	})
	require.NoError(t, err)
	return server, resp
}

func run(t *testing.T, cfgPath, serverURL string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errOut)
	RootCmd.SetArgs(append([]string{"--config", cfgPath, "--server", serverURL, "--timeout", "3s"}, args...))
	err := RootCmd.Execute()
	return out.String(), err
}

func TestForumCommands(t *testing.T) {
	t.Cleanup(viper.Reset)
	server, login := startServer(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")

	_, err := run(t, cfgPath, server.URL, "questions", "list")
	assert.ErrorIs(t, err, session.ErrNotLoggedIn)

	viper.SetConfigFile(cfgPath)
	_, err = session.Save(login.User, login.Token)
	require.NoError(t, err)

	out, err := run(t, cfgPath, server.URL, "questions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No questions yet")

	out, err = run(t, cfgPath, server.URL, "questions", "ask", "Is", "the", "CLI", "live?", "-d", "asking from a terminal")
	require.NoError(t, err)
	m := regexp.MustCompile(`id (\S+)\)`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	questionID := m[1]

	out, err = run(t, cfgPath, server.URL, "questions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "[C] Is the CLI live?")
	assert.Contains(t, out, "id "+questionID)

	out, err = run(t, cfgPath, server.URL, "questions", "like", questionID)
	require.NoError(t, err)
	assert.Contains(t, out, "*like 1")

	// disliking swaps the reaction
	out, err = run(t, cfgPath, server.URL, "questions", "dislike", questionID)
	require.NoError(t, err)
	assert.Contains(t, out, "like 0")
	assert.Contains(t, out, "*dislike 1")

	out, err = run(t, cfgPath, server.URL, "replies", "post", questionID, "It", "is")
	require.NoError(t, err)
	assert.Contains(t, out, "Reply posted")

	out, err = run(t, cfgPath, server.URL, "replies", "show", questionID)
	require.NoError(t, err)
	assert.Contains(t, out, "asking from a terminal")
	assert.Contains(t, out, "It is")
	assert.Contains(t, out, "replies 1")

	_, err = run(t, cfgPath, server.URL, "replies", "show", "missing-question")
	assert.Error(t, err)
}
