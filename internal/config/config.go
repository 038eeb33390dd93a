// ABOUTME: Application configuration
// ABOUTME: Merges defaults, config file, .env, VOXROUTE_* env vars and flags via viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the daemon
type Config struct {
	Listen         string        `mapstructure:"listen"`
	Channels       int           `mapstructure:"channels"`
	Timeout        time.Duration `mapstructure:"timeout"`
	IngressTimeout time.Duration `mapstructure:"ingress_timeout"`
	Backend        string        `mapstructure:"backend"`
	SampleRate     int           `mapstructure:"sample_rate"`
	BitDepth       int           `mapstructure:"bit_depth"`
	SettingsFile   string        `mapstructure:"settings_file"`
	MDNS           bool          `mapstructure:"mdns"`
	Name           string        `mapstructure:"name"`
	TUI            bool          `mapstructure:"tui"`
	Metrics        bool          `mapstructure:"metrics"`

	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
	File   string `mapstructure:"file"`
}

// Backends lists the accepted output backends
var Backends = []string{"malgo", "oto", "portaudio", "null"}

// SetDefaults registers every key's default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8686")
	v.SetDefault("channels", 5)
	v.SetDefault("timeout", "30s")
	v.SetDefault("ingress_timeout", "30s")
	v.SetDefault("backend", "malgo")
	v.SetDefault("sample_rate", 48000)
	v.SetDefault("bit_depth", 16)
	v.SetDefault("settings_file", defaultSettingsFile())
	v.SetDefault("mdns", true)
	v.SetDefault("name", defaultName())
	v.SetDefault("tui", false)
	v.SetDefault("metrics", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
}

// Load reads configuration into a Config. cfgFile may be empty, in which
// case voxroute.yaml is looked up in the usual places.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	// A missing .env is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("voxroute")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.voxroute")
		v.AddConfigPath("/etc/voxroute")
	}

	v.SetEnvPrefix("VOXROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		slog.Debug("No config file found, using defaults and environment variables")
	} else {
		slog.Info("Using config file", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Listen == "" {
		return &Error{Field: "listen", Message: "listen address is required"}
	}
	// The WebSocket frame carries the channel in one byte
	if c.Channels < 1 || c.Channels > 256 {
		return &Error{Field: "channels", Message: "must be between 1 and 256"}
	}
	if c.Timeout <= 0 {
		return &Error{Field: "timeout", Message: "must be positive"}
	}
	if c.IngressTimeout <= 0 {
		return &Error{Field: "ingress_timeout", Message: "must be positive"}
	}
	if !validBackend(c.Backend) {
		return &Error{Field: "backend", Message: "must be one of " + strings.Join(Backends, ", ")}
	}
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return &Error{Field: "sample_rate", Message: "must be between 8000 and 192000"}
	}
	if c.BitDepth != 16 && c.BitDepth != 24 && c.BitDepth != 32 {
		return &Error{Field: "bit_depth", Message: "must be 16, 24 or 32"}
	}
	if c.SettingsFile == "" {
		return &Error{Field: "settings_file", Message: "settings file path is required"}
	}
	return nil
}

func validBackend(backend string) bool {
	for _, b := range Backends {
		if b == backend {
			return true
		}
	}
	return false
}

// Error represents a configuration validation error
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}

func defaultSettingsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "settings.json"
	}
	return filepath.Join(dir, "voxroute", "settings.json")
}

func defaultName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "voxroute"
	}
	return "voxroute-" + host
}
