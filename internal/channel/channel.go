// ABOUTME: Per-channel routing table and playback settings
// ABOUTME: Holds volume, mute and device for each logical channel
package channel

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/voxroute/voxroute/pkg/audio"
)

const (
	// DefaultCount is the number of channels when none is configured
	DefaultCount = 5

	// DefaultDevice routes a channel to the platform default sink
	DefaultDevice = "default"
)

// ErrUnknownChannel is returned for channel numbers outside the table
var ErrUnknownChannel = errors.New("unknown channel")

// Setting is the user configuration for one channel
type Setting struct {
	Channel  int    `json:"channel"`
	Volume   int    `json:"volume"`
	IsMute   bool   `json:"isMute"`
	DeviceID string `json:"deviceId"`
}

// Defaults returns the factory settings for count channels
func Defaults(count int) []Setting {
	settings := make([]Setting, count)
	for i := range settings {
		settings[i] = defaultSetting(i)
	}
	return settings
}

func defaultSetting(ch int) Setting {
	return Setting{
		Channel:  ch,
		Volume:   audio.UnityVolume,
		IsMute:   false,
		DeviceID: DefaultDevice,
	}
}

// Persister stores settings outside the process
type Persister interface {
	Load() ([]Setting, error)
	Save(settings []Setting) error
}

// Resetter is implemented by persisters that discard stored settings and
// write the defaults themselves. Reset uses it instead of Save.
type Resetter interface {
	Reset() error
}

// Table is the channel routing table
type Table struct {
	// saveMu orders persistence so the last mutation is the last write
	saveMu sync.Mutex

	mu        sync.RWMutex
	settings  []Setting
	persister Persister
	logger    *slog.Logger
}

// New creates a table of count channels at their defaults
func New(count int, persister Persister, logger *slog.Logger) *Table {
	if count <= 0 {
		count = DefaultCount
	}
	return &Table{
		settings:  Defaults(count),
		persister: persister,
		logger:    logger,
	}
}

// Open creates a table and loads it from the persister
func Open(count int, persister Persister, logger *slog.Logger) (*Table, error) {
	t := New(count, persister, logger)
	if persister == nil {
		return t, nil
	}

	stored, err := persister.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load channel settings: %w", err)
	}
	t.Load(stored)

	return t, nil
}

// Count returns the number of channels
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.settings)
}

// Device returns the device a channel is routed to
func (t *Table) Device(ch int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.valid(ch) {
		return DefaultDevice
	}
	return t.settings[ch].DeviceID
}

// SetDevice routes a channel to a device. The id is not validated.
func (t *Table) SetDevice(ch int, deviceID string) error {
	return t.mutate(ch, func(s *Setting) {
		if deviceID == "" {
			deviceID = DefaultDevice
		}
		s.DeviceID = deviceID
	})
}

// Setting returns one channel's configuration
func (t *Table) Setting(ch int) (Setting, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.valid(ch) {
		return Setting{}, fmt.Errorf("%w: %d", ErrUnknownChannel, ch)
	}
	return t.settings[ch], nil
}

// SetVolume sets a channel's volume, clamped to 0..200
func (t *Table) SetVolume(ch, volume int) error {
	return t.mutate(ch, func(s *Setting) {
		s.Volume = audio.ClampVolume(volume)
	})
}

// SetMute sets a channel's mute flag
func (t *Table) SetMute(ch int, muted bool) error {
	return t.mutate(ch, func(s *Setting) {
		s.IsMute = muted
	})
}

// Update replaces a channel's configuration
func (t *Table) Update(setting Setting) error {
	return t.mutate(setting.Channel, func(s *Setting) {
		*s = normalize(setting)
	})
}

// Snapshot returns a copy of every channel's configuration
func (t *Table) Snapshot() []Setting {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Setting(nil), t.settings...)
}

// Reset restores every channel to its defaults
func (t *Table) Reset() {
	t.saveMu.Lock()
	defer t.saveMu.Unlock()

	t.mu.Lock()
	t.settings = Defaults(len(t.settings))
	snapshot := append([]Setting(nil), t.settings...)
	t.mu.Unlock()

	t.logger.Info("channel settings reset", "channels", len(snapshot))

	if r, ok := t.persister.(Resetter); ok {
		if err := r.Reset(); err != nil {
			t.logger.Error("failed to reset stored channel settings", "error", err)
		}
		return
	}
	t.save(snapshot)
}

// Load applies stored settings without persisting them.
// Entries for channels outside the table are ignored.
func (t *Table) Load(settings []Setting) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range settings {
		if !t.valid(s.Channel) {
			t.logger.Warn("ignoring stored setting for unknown channel", "channel", s.Channel)
			continue
		}
		t.settings[s.Channel] = normalize(s)
	}
}

// Resolve returns the effective volume and device for a channel.
// A muted channel resolves to volume 0; unknown channels get the defaults.
func (t *Table) Resolve(ch int) (int, string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.valid(ch) {
		t.logger.Warn("resolving unknown channel with defaults", "channel", ch)
		return audio.UnityVolume, DefaultDevice
	}

	s := t.settings[ch]
	if s.IsMute {
		return 0, s.DeviceID
	}
	return s.Volume, s.DeviceID
}

func (t *Table) mutate(ch int, fn func(s *Setting)) error {
	t.saveMu.Lock()
	defer t.saveMu.Unlock()

	t.mu.Lock()
	if !t.valid(ch) {
		t.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownChannel, ch)
	}
	fn(&t.settings[ch])
	t.settings[ch].Channel = ch
	snapshot := append([]Setting(nil), t.settings...)
	t.mu.Unlock()

	t.save(snapshot)
	return nil
}

// save must be called with t.saveMu held
func (t *Table) save(snapshot []Setting) {
	if t.persister == nil {
		return
	}
	if err := t.persister.Save(snapshot); err != nil {
		t.logger.Error("failed to save channel settings", "error", err)
	}
}

// valid must be called with t.mu held
func (t *Table) valid(ch int) bool {
	return ch >= 0 && ch < len(t.settings)
}

func normalize(s Setting) Setting {
	s.Volume = audio.ClampVolume(s.Volume)
	if s.DeviceID == "" {
		s.DeviceID = DefaultDevice
	}
	return s
}
