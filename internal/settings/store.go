// ABOUTME: JSON file persistence for channel settings
// ABOUTME: Loads, saves and watches the settings file for external edits
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/voxroute/voxroute/internal/channel"
)

// debounce groups bursts of file events into one reload
const debounce = 100 * time.Millisecond

// FileStore keeps channel settings in a JSON file
type FileStore struct {
	path   string
	count  int
	logger *slog.Logger

	mu       sync.Mutex
	lastSave []byte
}

// NewFileStore creates a store for count channels at path
func NewFileStore(path string, count int, logger *slog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		count:  count,
		logger: logger,
	}
}

// Path returns the settings file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the settings file. A missing file yields the defaults.
func (s *FileStore) Load() ([]channel.Setting, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return channel.Defaults(s.count), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var stored []channel.Setting
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", s.path, err)
	}
	return stored, nil
}

// Save writes settings atomically
func (s *FileStore) Save(settings []channel.Setting) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}

	s.lastSave = data
	return nil
}

// Reset deletes the file and writes the defaults
func (s *FileStore) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove settings: %w", err)
	}
	return s.Save(channel.Defaults(s.count))
}

// Watch calls onChange with the file contents whenever another process
// edits the file. It blocks until ctx is done.
func (s *FileStore) Watch(ctx context.Context, onChange func([]channel.Setting)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start settings watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	// The directory is watched because Save replaces the file by rename
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	s.logger.Debug("watching settings file", "path", s.path)

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-reload:
			reload = nil
			s.reload(onChange)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			reload = time.After(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("settings watcher error", "error", err)
		}
	}
}

func (s *FileStore) reload(onChange func([]channel.Setting)) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("failed to read changed settings", "error", err)
		return
	}

	s.mu.Lock()
	own := bytes.Equal(data, s.lastSave)
	s.mu.Unlock()
	if own {
		return
	}

	var stored []channel.Setting
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Warn("ignoring malformed settings file", "path", s.path, "error", err)
		return
	}

	s.logger.Info("settings file changed", "path", s.path, "channels", len(stored))
	onChange(stored)
}

// FileStore resets itself rather than overwriting through Save
var _ channel.Resetter = (*FileStore)(nil)
