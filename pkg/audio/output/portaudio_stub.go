//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"errors"
	"log/slog"
	"time"

	"github.com/voxroute/voxroute/pkg/audio"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio engine implementation (stub)
type PortAudio struct{}

// NewPortAudio reports that PortAudio is unavailable
func NewPortAudio(format audio.Format, logger *slog.Logger) (*PortAudio, error) {
	return nil, errPortAudioDisabled
}

// Format returns the zero format
func (p *PortAudio) Format() audio.Format { return audio.Format{} }

// Bind always fails
func (p *PortAudio) Bind(deviceID string) error { return errPortAudioDisabled }

// Connect always fails
func (p *PortAudio) Connect(v *Voice) error { return errPortAudioDisabled }

// Disconnect does nothing
func (p *PortAudio) Disconnect(v *Voice) {}

// Clock is always zero
func (p *PortAudio) Clock() time.Duration { return 0 }

// Close releases resources
func (p *PortAudio) Close() error { return nil }

// PortAudioDevice describes one PortAudio output
type PortAudioDevice struct {
	Name      string
	IsDefault bool
}

// ListPortAudioOutputs reports that PortAudio is unavailable
func ListPortAudioOutputs() ([]PortAudioDevice, error) {
	return nil, errPortAudioDisabled
}
