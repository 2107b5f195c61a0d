package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		URL:          os.Getenv("FORUMHUB_TEST_DATABASE_URL"),
		Host:         "localhost",
		Port:         5432,
		User:         "forumhub",
		Password:     "forumhub_dev_password",
		Database:     "forumhub_dev",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 1,
		Timeout:      2 * time.Second,
	}
}

func TestDSN(t *testing.T) {
	cfg := Config{Host: "db", User: "u", Password: "p", Database: "forum"}
	assert.Equal(t, "postgres://u:p@db:5432/forum?sslmode=disable&connect_timeout=5", cfg.DSN())

	cfg.URL = "postgres://other"
	assert.Equal(t, "postgres://other", cfg.DSN())

	assert.False(t, Config{}.Enabled())
	assert.True(t, cfg.Enabled())
}

func TestNewPGXPool(t *testing.T) {
	pool, err := NewPGXPool(testConfig())
	if err != nil {
		t.Skipf("Skipping test: PostgreSQL not available: %v", err)
		return
	}
	defer pool.Close()

	require.NoError(t, HealthCheck(context.Background(), pool))

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, HealthCheck(cancelCtx, pool))
}
