// ABOUTME: Null audio output engine
// ABOUTME: Consumes voices in real time without a device, for headless hosts
package output

import (
	"sync"
	"time"

	"github.com/voxroute/voxroute/pkg/audio"
)

const nullTick = 10 * time.Millisecond

// Null renders to nowhere at the configured sample rate
type Null struct {
	slot

	format audio.Format
	mu     sync.Mutex
	bound  string
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewNull creates a null engine and starts its render clock
func NewNull(format audio.Format) *Null {
	n := &Null{
		format: format,
		bound:  DefaultDevice,
		stop:   make(chan struct{}),
	}
	n.slot.init(format.SampleRate, format.Channels)

	n.wg.Add(1)
	go n.run()

	return n
}

func (n *Null) run() {
	defer n.wg.Done()

	frames := int(time.Duration(n.format.SampleRate) * nullTick / time.Second)
	buf := make([]int32, frames*n.format.Channels)

	ticker := time.NewTicker(nullTick)
	defer ticker.Stop()

	for {
		select {
		case <-n.stop:
			return
		case <-ticker.C:
			n.pull(buf)
		}
	}
}

// Format returns the render format
func (n *Null) Format() audio.Format {
	return n.format
}

// Bind records the device; any id is accepted
func (n *Null) Bind(deviceID string) error {
	if n.closed.Load() {
		return ErrClosed
	}
	if isDefault(deviceID) {
		deviceID = DefaultDevice
	}
	n.mu.Lock()
	n.bound = deviceID
	n.mu.Unlock()
	return nil
}

// Bound returns the last bound device
func (n *Null) Bound() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.bound
}

// Close stops the render clock
func (n *Null) Close() error {
	if n.closed.Swap(true) {
		return nil
	}
	n.shutdown()
	close(n.stop)
	n.wg.Wait()
	return nil
}
