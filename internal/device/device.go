// ABOUTME: Output device registry
// ABOUTME: Caches enumerated playback devices and resolves device ids to handles
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// KindOutput is the only device kind tracked
const KindOutput = "output"

// DefaultID always resolves to the platform default sink
const DefaultID = "default"

var (
	// ErrEnumeration wraps failures from the platform enumerator
	ErrEnumeration = errors.New("device enumeration failed")

	// ErrDeviceNotFound is returned when an id is not in the cache
	ErrDeviceNotFound = errors.New("device not found")
)

// Device is one enumerated output
type Device struct {
	ID      string `json:"deviceId"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Default bool   `json:"default,omitempty"`
}

// Handle is a resolved output the engine can bind to
type Handle struct {
	ID      string
	Label   string
	Default bool
}

// Enumerator lists the platform's output devices
type Enumerator interface {
	Outputs(ctx context.Context) ([]Device, error)
}

// EnumeratorFunc adapts a function to Enumerator
type EnumeratorFunc func(ctx context.Context) ([]Device, error)

// Outputs calls f
func (f EnumeratorFunc) Outputs(ctx context.Context) ([]Device, error) {
	return f(ctx)
}

// Static returns an enumerator that always reports the same devices
func Static(devices ...Device) Enumerator {
	return EnumeratorFunc(func(context.Context) ([]Device, error) {
		return append([]Device(nil), devices...), nil
	})
}

// Registry caches the last enumeration
type Registry struct {
	enum    Enumerator
	devices atomic.Pointer[[]Device]
	logger  *slog.Logger
}

// NewRegistry creates a registry with an empty cache
func NewRegistry(enum Enumerator, logger *slog.Logger) *Registry {
	r := &Registry{
		enum:   enum,
		logger: logger,
	}
	empty := []Device{}
	r.devices.Store(&empty)
	return r
}

// Refresh re-enumerates outputs and replaces the cache.
// Enumeration failures are logged and yield an empty list.
func (r *Registry) Refresh(ctx context.Context) []Device {
	found, err := r.enum.Outputs(ctx)
	if err != nil {
		r.logger.Warn("failed to enumerate output devices",
			"error", fmt.Errorf("%w: %w", ErrEnumeration, err))
		found = nil
	}

	devices := make([]Device, 0, len(found))
	for _, d := range found {
		if d.Label == "" {
			d.Label = fmt.Sprintf("Output device (%s)", d.ID)
		}
		d.Kind = KindOutput
		devices = append(devices, d)
	}

	r.devices.Store(&devices)
	r.logger.Debug("output devices refreshed", "count", len(devices))

	return copyDevices(devices)
}

// ListOutputs returns the last refreshed snapshot
func (r *Registry) ListOutputs() []Device {
	return copyDevices(*r.devices.Load())
}

// Resolve maps a device id to a handle.
// The default id resolves even when the cache is empty.
func (r *Registry) Resolve(id string) (Handle, error) {
	if id == "" || id == DefaultID {
		h := Handle{ID: DefaultID, Label: "Default output", Default: true}
		if d, ok := r.Default(); ok {
			h.Label = d.Label
		}
		return h, nil
	}

	for _, d := range *r.devices.Load() {
		if d.ID == id {
			return Handle{ID: d.ID, Label: d.Label, Default: d.Default}, nil
		}
	}

	return Handle{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
}

// Default returns the enumerated entry flagged as the platform default
func (r *Registry) Default() (Device, bool) {
	for _, d := range *r.devices.Load() {
		if d.Default {
			return d, true
		}
	}
	return Device{}, false
}

func copyDevices(devices []Device) []Device {
	return append([]Device{}, devices...)
}
