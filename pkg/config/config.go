// Package config loads the server configuration: a YAML file layered with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"forumhub/pkg/database"
	"forumhub/pkg/logger"
)

// Store backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds all server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Database  database.Config `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	NATS      NATSConfig      `yaml:"nats"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   logger.Config   `yaml:"logging"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Mode            string        `yaml:"mode"` // gin mode: release, debug, test
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects the realtime store backend
type StoreConfig struct {
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig for the redis backend
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// JWTConfig for token issuing
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	Expiration time.Duration `yaml:"expiration"`
}

// NATSConfig for the change feed; empty URL disables it
type NATSConfig struct {
	URL           string        `yaml:"url"`
	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	ClientName    string        `yaml:"client_name"`
	// LogChanges subscribes back to the feed and logs every change
	LogChanges bool `yaml:"log_changes"`
}

// RateLimitConfig throttles writes per user
type RateLimitConfig struct {
	WritesPerSecond float64 `yaml:"writes_per_second"`
	Burst           int     `yaml:"burst"`
}

// Default returns the development configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Mode:            "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "forumhub:",
			},
		},
		JWT: JWTConfig{
			Secret:     "forumhub-dev-secret",
			Issuer:     "forumhub",
			Expiration: 24 * time.Hour,
		},
		NATS: NATSConfig{
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
			ClientName:    "forumhub-server",
		},
		RateLimit: RateLimitConfig{
			WritesPerSecond: 5,
			Burst:           10,
		},
		Logging: logger.Config{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at startup
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	if c.JWT.Expiration <= 0 {
		return errors.New("jwt expiration must be positive")
	}
	if c.RateLimit.WritesPerSecond < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate limit must not be negative")
	}
	return nil
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) applyEnv() error {
	c.Server.Host = getEnv("FORUMHUB_HOST", c.Server.Host)
	c.Server.Mode = getEnv("GIN_MODE", c.Server.Mode)
	if origins := os.Getenv("FORUMHUB_ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	c.Store.Backend = getEnv("FORUMHUB_STORE_BACKEND", c.Store.Backend)
	c.Store.Redis.Addr = getEnv("REDIS_ADDR", c.Store.Redis.Addr)
	c.Store.Redis.Password = getEnv("REDIS_PASSWORD", c.Store.Redis.Password)
	c.Store.Redis.Prefix = getEnv("REDIS_PREFIX", c.Store.Redis.Prefix)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.JWT.Secret = getEnv("JWT_SECRET", c.JWT.Secret)
	c.JWT.Issuer = getEnv("JWT_ISSUER", c.JWT.Issuer)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.ClientName = getEnv("NATS_CLIENT_ID", c.NATS.ClientName)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)

	var err error
	if c.Server.Port, err = getEnvInt("FORUMHUB_PORT", c.Server.Port); err != nil {
		return err
	}
	if c.Store.Redis.DB, err = getEnvInt("REDIS_DB", c.Store.Redis.DB); err != nil {
		return err
	}
	if c.RateLimit.Burst, err = getEnvInt("RATE_LIMIT_BURST", c.RateLimit.Burst); err != nil {
		return err
	}
	if v := os.Getenv("RATE_LIMIT_WPS"); v != "" {
		if c.RateLimit.WritesPerSecond, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_WPS: %w", err)
		}
	}
	if v := os.Getenv("NATS_LOG_CHANGES"); v != "" {
		if c.NATS.LogChanges, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("invalid NATS_LOG_CHANGES: %w", err)
		}
	}
	if v := os.Getenv("JWT_EXPIRATION"); v != "" {
		if c.JWT.Expiration, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid JWT_EXPIRATION: %w", err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
