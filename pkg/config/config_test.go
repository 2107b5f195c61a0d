package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
store:
  backend: redis
  redis:
    addr: redis:6379
jwt:
  secret: from-file
  expiration: 2h
rate_limit:
  writes_per_second: 1.5
  burst: 3
`), 0o644))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("REDIS_PREFIX", "test:")
	t.Setenv("FORUMHUB_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("NATS_LOG_CHANGES", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "test:", cfg.Store.Redis.Prefix)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 1.5, cfg.RateLimit.WritesPerSecond)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.NATS.LogChanges)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("backend", func(t *testing.T) {
		t.Setenv("FORUMHUB_STORE_BACKEND", "sqlite")
		_, err := Load("")
		assert.ErrorContains(t, err, "unknown store backend")
	})
	t.Run("port", func(t *testing.T) {
		t.Setenv("FORUMHUB_PORT", "http")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid FORUMHUB_PORT")
	})
	t.Run("expiration", func(t *testing.T) {
		t.Setenv("JWT_EXPIRATION", "soon")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid JWT_EXPIRATION")
	})
	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [1"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "failed to parse config")
	})
}
