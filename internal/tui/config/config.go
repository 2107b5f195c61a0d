package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend kinds
const (
	BackendRemote = "remote"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds all TUI configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	UI      UIConfig      `yaml:"ui"`
}

// ServerConfig contains forumhub server connection settings
type ServerConfig struct {
	Host string     `yaml:"host"`
	HTTP HTTPConfig `yaml:"http"`
}

// HTTPConfig for the REST API and the listen socket, which share a port
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

// BackendConfig picks where forum data lives. remote talks to a server;
// memory and redis run the forum in-process.
type BackendConfig struct {
	Kind  string      `yaml:"kind"`
	Redis RedisConfig `yaml:"redis"`
	// JWTSecret signs local sessions for the in-process backends
	JWTSecret string `yaml:"jwt_secret"`
}

// RedisConfig for the redis backend
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// UIConfig for UI preferences
type UIConfig struct {
	Theme    string `yaml:"theme"`
	PageSize int    `yaml:"page_size"`
	Mouse    bool   `yaml:"mouse"`
	LogFile  string `yaml:"log_file"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			HTTP: HTTPConfig{
				Port:    8080,
				BaseURL: "http://localhost:8080",
			},
		},
		Backend: BackendConfig{
			Kind: BackendRemote,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "forumhub",
			},
			JWTSecret: "forumhub-tui-local",
		},
		UI: UIConfig{
			Theme:    "dracula",
			PageSize: 10,
			Mouse:    true,
			LogFile:  "discard",
		},
	}
}

// Load loads configuration from file, falling back to defaults
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return Default(), nil
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Public hosts are served behind TLS, local ones are not
	scheme := "http"
	if cfg.Server.Host != "localhost" && cfg.Server.Host != "127.0.0.1" {
		scheme = "https"
	}
	if cfg.Server.HTTP.BaseURL == "" || cfg.Server.HTTP.BaseURL == Default().Server.HTTP.BaseURL {
		cfg.Server.HTTP.BaseURL = fmt.Sprintf("%s://%s:%d", scheme, cfg.Server.Host, cfg.Server.HTTP.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the backend kind and UI limits
func (c *Config) Validate() error {
	c.Backend.Kind = strings.ToLower(strings.TrimSpace(c.Backend.Kind))
	switch c.Backend.Kind {
	case BackendRemote, BackendMemory, BackendRedis:
	case "":
		c.Backend.Kind = BackendRemote
	default:
		return fmt.Errorf("unknown backend %q (want remote, memory or redis)", c.Backend.Kind)
	}
	if c.UI.PageSize <= 0 {
		c.UI.PageSize = Default().UI.PageSize
	}
	return nil
}

// Save saves configuration to file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// findConfigFile searches for config in standard locations
func findConfigFile() string {
	locations := []string{
		"./forumhub-tui.yaml",
		"./configs/tui.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "forumhub", "tui.yaml"),
		filepath.Join(os.Getenv("HOME"), ".forumhub-tui.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// GetHTTPBaseURL returns the server root URL
func (c *Config) GetHTTPBaseURL() string {
	if c.Server.HTTP.BaseURL != "" {
		return c.Server.HTTP.BaseURL
	}
	return fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.HTTP.Port)
}
