package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, cfg.Backend.Kind)
	assert.Equal(t, "http://localhost:8080", cfg.GetHTTPBaseURL())
}

func TestLoadComputesBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tui.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  host: forum.example.com\n  http:\n    port: 443\nbackend:\n  kind: Redis\nui:\n  page_size: 0\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://forum.example.com:443", cfg.GetHTTPBaseURL())
	assert.Equal(t, BackendRedis, cfg.Backend.Kind)
	assert.Equal(t, "localhost:6379", cfg.Backend.Redis.Addr)
	assert.Equal(t, 10, cfg.UI.PageSize)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tui.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  kind: sqlite\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown backend")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tui.yaml")
	cfg := Default()
	cfg.Backend.Kind = BackendMemory
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, loaded.Backend.Kind)
}
