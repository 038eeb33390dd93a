// ABOUTME: Platform enumerators backed by the output backends
// ABOUTME: Adapts malgo and PortAudio device listings to the registry
package device

import (
	"context"
	"fmt"

	"github.com/voxroute/voxroute/pkg/audio/output"
)

// Malgo enumerates playback devices through miniaudio
func Malgo() Enumerator {
	return EnumeratorFunc(func(ctx context.Context) ([]Device, error) {
		found, err := output.ListMalgoOutputs()
		if err != nil {
			return nil, err
		}

		devices := make([]Device, 0, len(found))
		for _, d := range found {
			devices = append(devices, Device{ID: d.ID, Label: d.Name, Default: d.IsDefault})
		}
		return devices, nil
	})
}

// PortAudio enumerates PortAudio outputs; ids are device names
func PortAudio() Enumerator {
	return EnumeratorFunc(func(ctx context.Context) ([]Device, error) {
		found, err := output.ListPortAudioOutputs()
		if err != nil {
			return nil, err
		}

		devices := make([]Device, 0, len(found))
		for _, d := range found {
			devices = append(devices, Device{ID: d.Name, Label: d.Name, Default: d.IsDefault})
		}
		return devices, nil
	})
}

// ForBackend returns the enumerator matching an output backend.
// Backends that only reach the default sink enumerate nothing.
func ForBackend(backend string) (Enumerator, error) {
	switch backend {
	case "malgo", "":
		return Malgo(), nil
	case "portaudio":
		return PortAudio(), nil
	case "oto", "null":
		return Static(), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s", backend)
	}
}
