// ABOUTME: Malgo-based audio output engine with 24-bit support
// ABOUTME: Uses miniaudio via malgo and can rebind to any enumerated playback device
package output

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/voxroute/voxroute/pkg/audio"
)

// Malgo engine implementation using malgo/miniaudio library
type Malgo struct {
	slot

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	deviceID string
	format   audio.Format
	logger   *slog.Logger
}

// NewMalgo creates a malgo engine bound to the default device
func NewMalgo(format audio.Format, logger *slog.Logger) (*Malgo, error) {
	if _, err := malgoFormat(format.BitDepth); err != nil {
		return nil, err
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	m := &Malgo{
		malgoCtx: malgoCtx,
		format:   format,
		logger:   logger,
	}
	m.slot.init(format.SampleRate, format.Channels)

	if err := m.Bind(DefaultDevice); err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, err
	}

	return m, nil
}

// Format returns the device sample format
func (m *Malgo) Format() audio.Format {
	return m.format
}

// Bind initializes the requested device and swaps it in for the current one
func (m *Malgo) Bind(deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed.Load() {
		return ErrClosed
	}
	if isDefault(deviceID) {
		deviceID = DefaultDevice
	}
	if m.device != nil && m.deviceID == deviceID {
		return nil
	}

	format, _ := malgoFormat(m.format.BitDepth)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = uint32(m.format.Channels)
	deviceConfig.SampleRate = uint32(m.format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if deviceID != DefaultDevice {
		id, err := ParseMalgoDeviceID(deviceID)
		if err != nil {
			return err
		}
		deviceConfig.Playback.DeviceID = id.Pointer()
	}

	// Old and new device callbacks can overlap during a swap
	var buf []int32
	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			buf = m.dataCallback(buf, pOutputSample, frameCount)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device %s: %w", deviceID, err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device %s: %w", deviceID, err)
	}

	m.closeDevice()
	m.device = device
	m.deviceID = deviceID

	m.logger.Info("audio output bound",
		"device", deviceID,
		"sample_rate", m.format.SampleRate,
		"channels", m.format.Channels,
		"format", formatName(format))

	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(buf []int32, pOutput []byte, frameCount uint32) []int32 {
	totalSamples := int(frameCount) * m.format.Channels
	if cap(buf) < totalSamples {
		buf = make([]int32, totalSamples)
	}
	samples := buf[:totalSamples]

	m.pull(samples)

	switch m.format.BitDepth {
	case 16:
		write16Bit(pOutput, samples)
	case 24:
		write24Bit(pOutput, samples)
	case 32:
		write32Bit(pOutput, samples)
	}
	return buf
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed.Load() {
		return nil
	}
	m.shutdown()
	m.closeDevice()

	if err := m.malgoCtx.Uninit(); err != nil {
		m.logger.Warn("malgo context uninit error", "error", err)
	}
	m.malgoCtx.Free()
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device == nil {
		return
	}
	if err := m.device.Stop(); err != nil {
		m.logger.Warn("device stop error", "device", m.deviceID, "error", err)
	}
	m.device.Uninit()
	m.device = nil
}

// MalgoDevice describes one playback device reported by miniaudio
type MalgoDevice struct {
	ID        string
	Name      string
	IsDefault bool
}

// ListMalgoOutputs enumerates playback devices
func ListMalgoOutputs() ([]MalgoDevice, error) {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer func() {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
	}()

	devices, err := malgoCtx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to list playback devices: %w", err)
	}

	res := make([]MalgoDevice, 0, len(devices))
	seen := make(map[string]struct{}, len(devices))
	for _, dev := range devices {
		full, err := malgoCtx.DeviceInfo(malgo.Playback, dev.ID, malgo.Shared)
		if err != nil {
			continue
		}

		id := FormatMalgoDeviceID(full.ID)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		res = append(res, MalgoDevice{
			ID:        id,
			Name:      full.Name(),
			IsDefault: full.IsDefault == 1,
		})
	}

	return res, nil
}

// FormatMalgoDeviceID encodes a device id as hex without trailing padding
func FormatMalgoDeviceID(id malgo.DeviceID) string {
	end := len(id)
	for end > 0 && id[end-1] == 0 {
		end--
	}
	return hex.EncodeToString(id[:end])
}

// ParseMalgoDeviceID decodes an id produced by FormatMalgoDeviceID
func ParseMalgoDeviceID(s string) (malgo.DeviceID, error) {
	var id malgo.DeviceID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid device id %q: %w", s, err)
	}
	if len(raw) == 0 || len(raw) > len(id) {
		return id, fmt.Errorf("invalid device id %q: bad length %d", s, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// malgoFormat maps bit depth to malgo format
func malgoFormat(bitDepth int) (malgo.FormatType, error) {
	switch bitDepth {
	case 16:
		return malgo.FormatS16, nil
	case 24:
		return malgo.FormatS24, nil
	case 32:
		return malgo.FormatS32, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", bitDepth)
	}
}

// write16Bit converts int32 samples to 16-bit output
func write16Bit(output []byte, samples []int32) {
	for i, sample := range samples {
		sample16 := audio.SampleToInt16(sample)
		output[i*2] = byte(sample16)
		output[i*2+1] = byte(sample16 >> 8)
	}
}

// write24Bit packs int32 samples as 24-bit little-endian
func write24Bit(output []byte, samples []int32) {
	for i, sample := range samples {
		output[i*3] = byte(sample)
		output[i*3+1] = byte(sample >> 8)
		output[i*3+2] = byte(sample >> 16)
	}
}

// write32Bit converts int32 samples to 32-bit output
func write32Bit(output []byte, samples []int32) {
	for i, sample := range samples {
		// Shift the 24-bit value into the upper bits of the container
		sample32 := sample << 8
		output[i*4] = byte(sample32)
		output[i*4+1] = byte(sample32 >> 8)
		output[i*4+2] = byte(sample32 >> 16)
		output[i*4+3] = byte(sample32 >> 24)
	}
}

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
