// Package config handles loading and saving airzone-cli configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the airzone-cli configuration.
type Config struct {
	Account  AccountConfig  `yaml:"account"`
	Server   ServerConfig   `yaml:"server"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// AccountConfig holds the Airzone Cloud credentials.
type AccountConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// ServerConfig contains Airzone Cloud connection details.
type ServerConfig struct {
	URL       string `yaml:"url"`
	UserAgent string `yaml:"user_agent,omitempty"`
}

// DefaultsConfig contains default settings.
type DefaultsConfig struct {
	Output  string `yaml:"output"`
	Timeout int    `yaml:"timeout"`
	// SettleDelay is a Go duration string, e.g. "1s" or "500ms".
	SettleDelay   string  `yaml:"settle_delay"`
	RateLimit     float64 `yaml:"rate_limit,omitempty"`
	LogLevel      string  `yaml:"log_level"`
	MetricsListen string  `yaml:"metrics_listen"`
}

const (
	DefaultURL           = "https://m.airzonecloud.com"
	DefaultOutput        = "human"
	DefaultTimeout       = 30
	DefaultSettleDelay   = "1s"
	DefaultLogLevel      = "warn"
	DefaultMetricsListen = ":9477"
)

// ErrNotConfigured is returned when the config file doesn't exist or is incomplete.
var ErrNotConfigured = errors.New("airzone-cli not configured. Run 'airzone-cli login' first")

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "airzone-cli", "config.yaml")
}

// Load reads the configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom reads the configuration from the specified path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if _, err := cfg.SettleDelay(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	if c.Server.URL == "" {
		c.Server.URL = DefaultURL
	}
	if c.Defaults.Output == "" {
		c.Defaults.Output = DefaultOutput
	}
	if c.Defaults.Timeout == 0 {
		c.Defaults.Timeout = DefaultTimeout
	}
	if c.Defaults.SettleDelay == "" {
		c.Defaults.SettleDelay = DefaultSettleDelay
	}
	if c.Defaults.LogLevel == "" {
		c.Defaults.LogLevel = DefaultLogLevel
	}
	if c.Defaults.MetricsListen == "" {
		c.Defaults.MetricsListen = DefaultMetricsListen
	}
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	// The file holds the account password.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the config has credentials set.
func (c *Config) IsConfigured() bool {
	return c != nil && c.Account.Email != "" && c.Account.Password != ""
}

// Delete removes the configuration file.
func Delete() error {
	return DeleteFrom(DefaultConfigPath())
}

// DeleteFrom removes the configuration file at the specified path.
func DeleteFrom(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// RedactedPassword returns the password with every character masked.
func (c *Config) RedactedPassword() string {
	if c.Account.Password == "" {
		return ""
	}
	return "********"
}

// Timeout returns the HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Defaults.Timeout) * time.Second
}

// SettleDelay parses the settle delay. A negative duration disables the wait.
func (c *Config) SettleDelay() (time.Duration, error) {
	if c.Defaults.SettleDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Defaults.SettleDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid settle_delay %q: %w", c.Defaults.SettleDelay, err)
	}
	return d, nil
}

// LogLevel maps the configured level name to a slog level. Unknown names
// select warn.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Defaults.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
