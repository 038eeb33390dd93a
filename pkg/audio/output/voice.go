// ABOUTME: Voice holds one converted clip being rendered
// ABOUTME: Engines pull samples from it and it signals when the clip is exhausted
package output

import (
	"sync"

	"github.com/voxroute/voxroute/pkg/audio"
)

// Voice is a single clip routed through a gain node
type Voice struct {
	mu      sync.Mutex
	samples []int32
	pos     int
	gain    *Gain

	done chan struct{}
	once sync.Once
}

// NewVoice creates a voice over interleaved samples in the engine format
func NewVoice(samples []int32, gain *Gain) *Voice {
	v := &Voice{
		samples: samples,
		gain:    gain,
		done:    make(chan struct{}),
	}
	if len(samples) == 0 {
		v.finish()
	}
	return v
}

// Read fills dst with the next samples scaled by the gain node.
// The tail is zero-filled; the number of clip samples copied is returned.
func (v *Voice) Read(dst []int32) int {
	v.mu.Lock()
	n := copy(dst, v.samples[v.pos:])
	v.pos += n
	exhausted := v.pos >= len(v.samples)
	v.mu.Unlock()

	if v.gain != nil {
		audio.ApplyGain(dst[:n], v.gain.Value())
	}
	clear(dst[n:])

	if exhausted {
		v.finish()
	}
	return n
}

// Remaining returns the number of samples not yet rendered
func (v *Voice) Remaining() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.samples) - v.pos
}

// Done is closed once the clip has been fully read or stopped
func (v *Voice) Done() <-chan struct{} {
	return v.done
}

// Stop ends the voice early
func (v *Voice) Stop() {
	v.mu.Lock()
	v.pos = len(v.samples)
	v.mu.Unlock()
	v.finish()
}

func (v *Voice) finish() {
	v.once.Do(func() { close(v.done) })
}
