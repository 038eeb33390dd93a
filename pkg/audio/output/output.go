// ABOUTME: Audio output engine interface definition
// ABOUTME: Common interface and factory for audio playback backends
package output

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxroute/voxroute/pkg/audio"
)

// DefaultDevice names the platform's default output sink
const DefaultDevice = "default"

var (
	// ErrClosed is returned by an engine after Close
	ErrClosed = errors.New("output engine closed")

	// ErrUnsupportedDevice is returned when a backend cannot address a device
	ErrUnsupportedDevice = errors.New("device not supported by backend")
)

// Engine represents an audio output that plays one voice at a time
type Engine interface {
	// Format returns the sample format voices must be converted to
	Format() audio.Format

	// Bind switches the engine to a device. An empty id or "default"
	// selects the platform default. On failure the previous device stays bound.
	Bind(deviceID string) error

	// Connect starts rendering a voice
	Connect(v *Voice) error

	// Disconnect stops rendering a voice if it is still connected
	Disconnect(v *Voice)

	// Clock returns the engine's render time
	Clock() time.Duration

	// Close releases output resources
	Close() error
}

// DefaultFormat returns the engine format used when none is configured
func DefaultFormat() audio.Format {
	return audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}
}

// New creates an engine for the named backend
func New(backend string, format audio.Format, logger *slog.Logger) (Engine, error) {
	var (
		eng Engine
		err error
	)

	switch backend {
	case "malgo", "":
		eng, err = asEngine(NewMalgo(format, logger))
	case "oto":
		eng, err = asEngine(NewOto(format, logger))
	case "portaudio":
		eng, err = asEngine(NewPortAudio(format, logger))
	case "null":
		eng = NewNull(format)
	default:
		return nil, fmt.Errorf("unknown output backend: %s", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s output: %w", backend, err)
	}
	return eng, nil
}

// asEngine drops typed nil pointers so failed constructors yield a nil Engine
func asEngine[T Engine](e T, err error) (Engine, error) {
	if err != nil {
		return nil, err
	}
	return e, nil
}

// isDefault reports whether id selects the platform default sink
func isDefault(id string) bool {
	return id == "" || id == DefaultDevice
}
