// ABOUTME: Shared audio graph
// ABOUTME: One gain node in front of one output engine, rebound per unit
package playback

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxroute/voxroute/internal/device"
	"github.com/voxroute/voxroute/pkg/audio"
	"github.com/voxroute/voxroute/pkg/audio/output"
)

// DeviceResolver maps device ids to bindable handles
type DeviceResolver interface {
	Resolve(id string) (device.Handle, error)
}

// Graph is the process-wide render path
type Graph struct {
	engine  output.Engine
	devices DeviceResolver
	gain    *output.Gain
	logger  *slog.Logger

	mu    sync.Mutex
	bound string
}

// NewGraph creates a graph at unity gain on the default device
func NewGraph(engine output.Engine, devices DeviceResolver, logger *slog.Logger) *Graph {
	return &Graph{
		engine:  engine,
		devices: devices,
		gain:    output.NewGain(1.0),
		logger:  logger,
		bound:   device.DefaultID,
	}
}

// Gain returns the shared gain node
func (g *Graph) Gain() *output.Gain {
	return g.gain
}

// CurrentTime returns the engine clock
func (g *Graph) CurrentTime() time.Duration {
	return g.engine.Clock()
}

// Format returns the format voices are rendered in
func (g *Graph) Format() audio.Format {
	return g.engine.Format()
}

// Bind routes the graph to a device. On failure the current sink is kept.
func (g *Graph) Bind(deviceID string) error {
	h, err := g.devices.Resolve(deviceID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceBind, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if h.ID == g.bound {
		return nil
	}
	if err := g.engine.Bind(h.ID); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDeviceBind, h.ID, err)
	}

	g.logger.Debug("graph rebound", "from", g.bound, "to", h.ID, "label", h.Label)
	g.bound = h.ID
	return nil
}

// Bound returns the id of the device currently bound
func (g *Graph) Bound() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bound
}

// Connect starts rendering samples through the gain node
func (g *Graph) Connect(samples []int32) (*output.Voice, error) {
	v := output.NewVoice(samples, g.gain)
	if err := g.engine.Connect(v); err != nil {
		return nil, fmt.Errorf("failed to connect voice: %w", err)
	}
	return v, nil
}

// Disconnect detaches a voice from the engine
func (g *Graph) Disconnect(v *output.Voice) {
	v.Stop()
	g.engine.Disconnect(v)
}
