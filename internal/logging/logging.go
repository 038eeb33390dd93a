// ABOUTME: Structured logging setup
// ABOUTME: Configures slog for stdout plus an optional size-rotated log file
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrick/logrotate/rotator"
)

const (
	// rotateThresholdKB is the file size that triggers a roll
	rotateThresholdKB = 1024

	maxLogFiles = 10
)

// Setup configures the global logger and returns a function that closes
// the log file, if any. With console false only the file receives logs,
// which keeps a full-screen TUI readable.
func Setup(level, format, file string, console bool) (func() error, error) {
	stdout := io.Writer(os.Stdout)
	if !console {
		stdout = io.Discard
	}
	return setup(stdout, level, format, file)
}

func setup(stdout io.Writer, level, format, file string) (func() error, error) {
	out := stdout
	closer := func() error { return nil }

	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		logRotator, err := rotator.New(file, rotateThresholdKB, false, maxLogFiles)
		if err != nil {
			return nil, fmt.Errorf("failed to create file rotator: %w", err)
		}
		out = io.MultiWriter(stdout, logRotator)
		closer = logRotator.Close
	}

	slog.SetDefault(slog.New(NewHandler(out, level, format)))
	return closer, nil
}

// NewHandler builds a text or JSON handler at the given level
func NewHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	switch strings.ToLower(format) {
	case "json":
		return slog.NewJSONHandler(w, opts)
	default:
		return slog.NewTextHandler(w, opts)
	}
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns a logger with a component field
func WithComponent(component string) *slog.Logger {
	return slog.With("component", component)
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
