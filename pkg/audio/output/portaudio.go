//go:build portaudio

// ABOUTME: PortAudio output engine
// ABOUTME: Cross-platform audio output using PortAudio, addressing devices by name
package output

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/voxroute/voxroute/pkg/audio"
)

// PortAudio engine implementation
type PortAudio struct {
	slot

	mu       sync.Mutex
	stream   *portaudio.Stream
	deviceID string
	format   audio.Format
	logger   *slog.Logger
}

// NewPortAudio initializes PortAudio and opens the default device
func NewPortAudio(format audio.Format, logger *slog.Logger) (*PortAudio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	format.BitDepth = 16
	p := &PortAudio{
		format: format,
		logger: logger,
	}
	p.slot.init(format.SampleRate, format.Channels)

	if err := p.Bind(DefaultDevice); err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return p, nil
}

// Format returns the stream sample format
func (p *PortAudio) Format() audio.Format {
	return p.format
}

// Bind opens a stream on the named device and replaces the current one
func (p *PortAudio) Bind(deviceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return ErrClosed
	}
	if isDefault(deviceID) {
		deviceID = DefaultDevice
	}
	if p.stream != nil && p.deviceID == deviceID {
		return nil
	}

	dev, err := findPortAudioDevice(deviceID)
	if err != nil {
		return err
	}

	params := portaudio.LowLatencyParameters(nil, dev)
	params.Output.Channels = p.format.Channels
	params.SampleRate = float64(p.format.SampleRate)

	var buf []int32
	stream, err := portaudio.OpenStream(params, func(out []int16) {
		if cap(buf) < len(out) {
			buf = make([]int32, len(out))
		}
		samples := buf[:len(out)]
		p.pull(samples)
		for i, s := range samples {
			out[i] = audio.SampleToInt16(s)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to open stream on %s: %w", deviceID, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start stream on %s: %w", deviceID, err)
	}

	p.closeStream()
	p.stream = stream
	p.deviceID = deviceID

	p.logger.Info("audio output bound", "device", deviceID, "name", dev.Name, "backend", "portaudio")
	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return nil
	}
	p.shutdown()
	p.closeStream()
	return portaudio.Terminate()
}

func (p *PortAudio) closeStream() {
	if p.stream == nil {
		return
	}
	if err := p.stream.Stop(); err != nil {
		p.logger.Warn("stream stop error", "device", p.deviceID, "error", err)
	}
	if err := p.stream.Close(); err != nil {
		p.logger.Warn("stream close error", "device", p.deviceID, "error", err)
	}
	p.stream = nil
}

func findPortAudioDevice(deviceID string) (*portaudio.DeviceInfo, error) {
	if deviceID == DefaultDevice {
		dev, err := portaudio.DefaultOutputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to find default output: %w", err)
		}
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	for _, dev := range devices {
		if dev.MaxOutputChannels > 0 && dev.Name == deviceID {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("portaudio device %s: %w", deviceID, ErrUnsupportedDevice)
}

// PortAudioDevice describes one PortAudio output
type PortAudioDevice struct {
	Name      string
	IsDefault bool
}

// ListPortAudioOutputs enumerates devices with output channels
func ListPortAudioOutputs() ([]PortAudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	var defaultName string
	if def, err := portaudio.DefaultOutputDevice(); err == nil {
		defaultName = def.Name
	}

	var res []PortAudioDevice
	for _, dev := range devices {
		if dev.MaxOutputChannels == 0 {
			continue
		}
		res = append(res, PortAudioDevice{Name: dev.Name, IsDefault: dev.Name == defaultName})
	}
	return res, nil
}
