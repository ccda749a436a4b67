package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom(t *testing.T) {
	t.Run("loads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		os.WriteFile(path, []byte(`
account:
  email: user@example.com
  password: hunter22
server:
  url: http://localhost:8080
defaults:
  output: json
  timeout: 60
  settle_delay: 2500ms
  rate_limit: 4
  log_level: debug
  metrics_listen: 127.0.0.1:9100
`), 0600)

		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom() error = %v", err)
		}

		if cfg.Account.Email != "user@example.com" {
			t.Errorf("Email = %q, want %q", cfg.Account.Email, "user@example.com")
		}
		if cfg.Account.Password != "hunter22" {
			t.Errorf("Password = %q, want %q", cfg.Account.Password, "hunter22")
		}
		if cfg.Server.URL != "http://localhost:8080" {
			t.Errorf("URL = %q, want %q", cfg.Server.URL, "http://localhost:8080")
		}
		if cfg.Defaults.Output != "json" {
			t.Errorf("Output = %q, want %q", cfg.Defaults.Output, "json")
		}
		if cfg.Timeout() != 60*time.Second {
			t.Errorf("Timeout() = %v, want %v", cfg.Timeout(), 60*time.Second)
		}
		if d, _ := cfg.SettleDelay(); d != 2500*time.Millisecond {
			t.Errorf("SettleDelay() = %v, want %v", d, 2500*time.Millisecond)
		}
		if cfg.Defaults.RateLimit != 4 {
			t.Errorf("RateLimit = %v, want 4", cfg.Defaults.RateLimit)
		}
		if cfg.LogLevel() != slog.LevelDebug {
			t.Errorf("LogLevel() = %v, want debug", cfg.LogLevel())
		}
		if cfg.Defaults.MetricsListen != "127.0.0.1:9100" {
			t.Errorf("MetricsListen = %q", cfg.Defaults.MetricsListen)
		}
	})

	t.Run("sets defaults for missing fields", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		os.WriteFile(path, []byte(`
account:
  email: user@example.com
  password: abc
`), 0600)

		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom() error = %v", err)
		}

		if cfg.Server.URL != DefaultURL {
			t.Errorf("URL default = %q, want %q", cfg.Server.URL, DefaultURL)
		}
		if cfg.Defaults.Output != "human" {
			t.Errorf("Output default = %q, want %q", cfg.Defaults.Output, "human")
		}
		if cfg.Defaults.Timeout != 30 {
			t.Errorf("Timeout default = %d, want %d", cfg.Defaults.Timeout, 30)
		}
		if d, _ := cfg.SettleDelay(); d != time.Second {
			t.Errorf("SettleDelay default = %v, want 1s", d)
		}
		if cfg.LogLevel() != slog.LevelWarn {
			t.Errorf("LogLevel default = %v, want warn", cfg.LogLevel())
		}
		if cfg.Defaults.MetricsListen != DefaultMetricsListen {
			t.Errorf("MetricsListen default = %q", cfg.Defaults.MetricsListen)
		}
	})

	t.Run("returns ErrNotConfigured for missing file", func(t *testing.T) {
		_, err := LoadFrom("/nonexistent/path/config.yaml")
		if err != ErrNotConfigured {
			t.Errorf("LoadFrom() error = %v, want ErrNotConfigured", err)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		os.WriteFile(path, []byte(`{invalid yaml`), 0600)

		_, err := LoadFrom(path)
		if err == nil {
			t.Error("LoadFrom() expected error for invalid YAML")
		}
	})

	t.Run("returns error for invalid settle delay", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		os.WriteFile(path, []byte("defaults:\n  settle_delay: soon\n"), 0600)

		_, err := LoadFrom(path)
		if err == nil {
			t.Error("LoadFrom() expected error for invalid settle_delay")
		}
	})
}

func TestSaveTo(t *testing.T) {
	t.Run("saves and reloads config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")

		cfg := &Config{
			Account: AccountConfig{
				Email:    "user@example.com",
				Password: "my-password",
			},
			Server: ServerConfig{
				URL: "http://airzone.local",
			},
			Defaults: DefaultsConfig{
				Output:      "json",
				Timeout:     45,
				SettleDelay: "3s",
			},
		}

		if err := cfg.SaveTo(path); err != nil {
			t.Fatalf("SaveTo() error = %v", err)
		}

		loaded, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom() error = %v", err)
		}

		if loaded.Account != cfg.Account {
			t.Errorf("Account = %+v, want %+v", loaded.Account, cfg.Account)
		}
		if loaded.Server.URL != cfg.Server.URL {
			t.Errorf("URL = %q, want %q", loaded.Server.URL, cfg.Server.URL)
		}
		if loaded.Defaults.SettleDelay != "3s" {
			t.Errorf("SettleDelay = %q, want %q", loaded.Defaults.SettleDelay, "3s")
		}
	})

	t.Run("creates directories", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "sub", "dir", "config.yaml")

		cfg := &Config{
			Account: AccountConfig{Email: "a@b.c", Password: "pw"},
		}

		if err := cfg.SaveTo(path); err != nil {
			t.Fatalf("SaveTo() error = %v", err)
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Error("SaveTo() did not create file")
		}
	})

	t.Run("file has restricted permissions", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")

		cfg := &Config{
			Account: AccountConfig{Email: "a@b.c", Password: "pw"},
		}

		cfg.SaveTo(path)

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}

		perm := info.Mode().Perm()
		if perm != 0600 {
			t.Errorf("file permissions = %o, want 0600", perm)
		}
	})
}

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want bool
	}{
		{
			name: "fully configured",
			cfg:  &Config{Account: AccountConfig{Email: "a@b.c", Password: "pw"}},
			want: true,
		},
		{
			name: "missing email",
			cfg:  &Config{Account: AccountConfig{Password: "pw"}},
			want: false,
		},
		{
			name: "missing password",
			cfg:  &Config{Account: AccountConfig{Email: "a@b.c"}},
			want: false,
		},
		{
			name: "nil config",
			cfg:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.IsConfigured()
			if got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRedactedPassword(t *testing.T) {
	cfg := &Config{Account: AccountConfig{Password: "secret"}}
	if got := cfg.RedactedPassword(); got != "********" {
		t.Errorf("RedactedPassword() = %q, want %q", got, "********")
	}
	cfg.Account.Password = ""
	if got := cfg.RedactedPassword(); got != "" {
		t.Errorf("RedactedPassword() = %q, want empty", got)
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{Defaults: DefaultsConfig{LogLevel: tt.level}}
			if got := cfg.LogLevel(); got != tt.want {
				t.Errorf("LogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeleteFrom(t *testing.T) {
	t.Run("deletes existing file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		os.WriteFile(path, []byte("test"), 0600)

		err := DeleteFrom(path)
		if err != nil {
			t.Fatalf("DeleteFrom() error = %v", err)
		}

		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("DeleteFrom() did not remove file")
		}
	})

	t.Run("no error for nonexistent file", func(t *testing.T) {
		err := DeleteFrom("/nonexistent/config.yaml")
		if err != nil {
			t.Errorf("DeleteFrom() error = %v, want nil", err)
		}
	})
}
