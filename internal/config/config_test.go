// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Uses isolated viper instances with files and env vars
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Listen != ":8686" {
		t.Errorf("expected :8686, got %s", cfg.Listen)
	}
	if cfg.Channels != 5 {
		t.Errorf("expected 5 channels, got %d", cfg.Channels)
	}
	if cfg.Timeout != 30*time.Second || cfg.IngressTimeout != 30*time.Second {
		t.Errorf("unexpected timeouts %v %v", cfg.Timeout, cfg.IngressTimeout)
	}
	if cfg.Backend != "malgo" || cfg.SampleRate != 48000 || cfg.BitDepth != 16 {
		t.Errorf("unexpected audio config %+v", cfg)
	}
	if !cfg.MDNS || !cfg.Metrics || cfg.TUI {
		t.Errorf("unexpected feature flags %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	file := filepath.Join(dir, "custom.yaml")
	content := "channels: 8\ntimeout: 5s\nbackend: \"null\"\nlogging:\n  level: debug\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("VOXROUTE_LISTEN", ":9000")
	t.Setenv("VOXROUTE_LOGGING_FORMAT", "json")

	cfg, err := Load(viper.New(), file)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Channels != 8 || cfg.Timeout != 5*time.Second || cfg.Backend != "null" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("expected env listen :9000, got %s", cfg.Listen)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VOXROUTE_NAME=kitchen\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("VOXROUTE_NAME") })

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Name != "kitchen" {
		t.Errorf("expected name from .env, got %s", cfg.Name)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Listen:         ":8686",
			Channels:       5,
			Timeout:        30 * time.Second,
			IngressTimeout: 30 * time.Second,
			Backend:        "malgo",
			SampleRate:     48000,
			BitDepth:       16,
			SettingsFile:   "settings.json",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"no listen", func(c *Config) { c.Listen = "" }, "listen"},
		{"zero channels", func(c *Config) { c.Channels = 0 }, "channels"},
		{"too many channels", func(c *Config) { c.Channels = 300 }, "channels"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"zero ingress timeout", func(c *Config) { c.IngressTimeout = 0 }, "ingress_timeout"},
		{"bad backend", func(c *Config) { c.Backend = "alsa" }, "backend"},
		{"bad rate", func(c *Config) { c.SampleRate = 100 }, "sample_rate"},
		{"bad depth", func(c *Config) { c.BitDepth = 8 }, "bit_depth"},
		{"no settings file", func(c *Config) { c.SettingsFile = "" }, "settings_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)

			err := c.Validate()
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, cfgErr.Field)
			}
		})
	}

	c := valid()
	if err := c.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}
