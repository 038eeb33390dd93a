// ABOUTME: Oto-based audio output engine
// ABOUTME: Plays 16-bit PCM on the default device through a persistent oto player
package output

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/voxroute/voxroute/pkg/audio"
)

var (
	// oto allows one context per process
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// Oto engine implementation using oto library
type Oto struct {
	slot

	player *oto.Player
	format audio.Format
	logger *slog.Logger
}

// NewOto creates a new Oto engine on the default device
func NewOto(format audio.Format, logger *slog.Logger) (*Oto, error) {
	// oto only supports 16-bit output
	if format.BitDepth != 16 {
		logger.Warn("oto only supports 16-bit output", "requested_bit_depth", format.BitDepth)
		format.BitDepth = 16
	}

	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-readyChan
		otoCtx = ctx
	})
	if otoErr != nil {
		return nil, otoErr
	}

	o := &Oto{
		format: format,
		logger: logger,
	}
	o.slot.init(format.SampleRate, format.Channels)

	// The player never sees EOF; idle periods render silence
	o.player = otoCtx.NewPlayer(&pcmReader{slot: &o.slot})
	o.player.Play()

	logger.Info("audio output bound",
		"device", DefaultDevice,
		"sample_rate", format.SampleRate,
		"channels", format.Channels,
		"format", "S16")

	return o, nil
}

// Format returns the device sample format
func (o *Oto) Format() audio.Format {
	return o.format
}

// Bind accepts only the default device
func (o *Oto) Bind(deviceID string) error {
	if o.closed.Load() {
		return ErrClosed
	}
	if !isDefault(deviceID) {
		return fmt.Errorf("oto cannot open %s: %w", deviceID, ErrUnsupportedDevice)
	}
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	if o.closed.Swap(true) {
		return nil
	}
	o.shutdown()
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			return fmt.Errorf("failed to close oto player: %w", err)
		}
	}
	return nil
}

// pcmReader adapts a slot to the io.Reader oto pulls from
type pcmReader struct {
	slot *slot
	buf  []int32
}

func (r *pcmReader) Read(p []byte) (int, error) {
	n := len(p) / 2
	n -= n % r.slot.channels
	if n == 0 {
		return 0, nil
	}
	if cap(r.buf) < n {
		r.buf = make([]int32, n)
	}
	samples := r.buf[:n]

	r.slot.pull(samples)
	write16Bit(p, samples)

	return n * 2, nil
}
