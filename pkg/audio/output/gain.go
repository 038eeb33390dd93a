// ABOUTME: Shared gain node
// ABOUTME: Lock-free gain value written by the playing unit and read by device callbacks
package output

import (
	"math"
	"sync/atomic"
	"time"
)

// Gain is a multiplier applied to every voice connected through it
type Gain struct {
	bits atomic.Uint64
	at   atomic.Int64
}

// NewGain creates a gain node with an initial value
func NewGain(value float64) *Gain {
	g := &Gain{}
	g.bits.Store(math.Float64bits(value))
	return g
}

// SetValueAtTime sets the gain as a hard step at the given engine time
func (g *Gain) SetValueAtTime(value float64, at time.Duration) {
	if value < 0 || math.IsNaN(value) {
		value = 0
	}
	g.bits.Store(math.Float64bits(value))
	g.at.Store(int64(at))
}

// Value returns the current gain
func (g *Gain) Value() float64 {
	return math.Float64frombits(g.bits.Load())
}

// ChangedAt returns the engine time of the last step
func (g *Gain) ChangedAt() time.Duration {
	return time.Duration(g.at.Load())
}
