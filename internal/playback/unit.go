// ABOUTME: Playback unit
// ABOUTME: Decodes, routes and renders one request, then signals completion once
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxroute/voxroute/pkg/audio"
	"github.com/voxroute/voxroute/pkg/audio/output"
	"github.com/voxroute/voxroute/pkg/audio/resample"
)

// UnitState is the lifecycle position of a unit
type UnitState int

const (
	StatePending UnitState = iota
	StateDecoding
	StateRendering
	StateFinished
	StateFailed
)

func (s UnitState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDecoding:
		return "decoding"
	case StateRendering:
		return "rendering"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("UnitState(%d)", int(s))
	}
}

// Outcome records how a unit ended
type Outcome int

const (
	OutcomePlayed Outcome = iota
	OutcomeDecodeFailed
	OutcomeRenderFailed
	OutcomeTimedOut
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlayed:
		return "played"
	case OutcomeDecodeFailed:
		return "decode_failed"
	case OutcomeRenderFailed:
		return "render_failed"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Request is one buffer to play on a channel.
// Volume and DeviceID are filled in when the unit is dequeued.
type Request struct {
	ID         string
	Channel    int
	Data       []byte
	Volume     int
	DeviceID   string
	OnFinished func()
}

// DecodeFunc turns an encoded buffer into PCM
type DecodeFunc func(data []byte) (audio.Clip, error)

// Unit is a queued or live request
type Unit struct {
	Request

	graph   *Graph
	decode  DecodeFunc
	timeout time.Duration
	logger  *slog.Logger
	ticket  *Ticket

	mu    sync.Mutex
	state UnitState
	once  sync.Once
}

func newUnit(req Request, graph *Graph, decode DecodeFunc, timeout time.Duration, logger *slog.Logger) *Unit {
	return &Unit{
		Request: req,
		graph:   graph,
		decode:  decode,
		timeout: timeout,
		logger:  logger.With("unit", req.ID, "channel", req.Channel),
		ticket:  newTicket(req.ID, req.Channel),
		state:   StatePending,
	}
}

// State returns the unit's lifecycle state
func (u *Unit) State() UnitState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

func (u *Unit) setState(s UnitState) {
	u.mu.Lock()
	u.state = s
	u.mu.Unlock()
}

// Ticket returns the unit's completion handle
func (u *Unit) Ticket() *Ticket {
	return u.ticket
}

// Play renders the unit and fires completion. It never panics outward.
func (u *Unit) Play(ctx context.Context) (outcome Outcome) {
	var voice *output.Voice

	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("playback panic", "panic", r)
			outcome = OutcomeRenderFailed
		}
		if voice != nil {
			u.graph.Disconnect(voice)
		}
		if outcome == OutcomePlayed || outcome == OutcomeTimedOut {
			u.setState(StateFinished)
		} else {
			u.setState(StateFailed)
		}
		u.complete(outcome)
	}()

	if ctx.Err() != nil {
		return OutcomeCancelled
	}

	// The ceiling runs from dequeue so a slow decode cannot hold the queue
	timer := time.NewTimer(u.timeout)
	defer timer.Stop()

	u.setState(StateDecoding)
	var clip audio.Clip
	select {
	case res := <-u.decodeAsync():
		if res.err != nil {
			u.logger.Warn("skipping unit", "error", fmt.Errorf("%w: %w", ErrDecode, res.err), "bytes", len(u.Data))
			return OutcomeDecodeFailed
		}
		clip = res.clip
	case <-timer.C:
		u.logger.Info("stopping unit during decode", "error", ErrPlaybackTimeout, "timeout", u.timeout)
		return OutcomeTimedOut
	case <-ctx.Done():
		return OutcomeCancelled
	}

	u.graph.Gain().SetValueAtTime(audio.GainForVolume(u.Volume, false), u.graph.CurrentTime())

	if err := u.graph.Bind(u.DeviceID); err != nil {
		u.logger.Warn("playing on current output", "error", err, "bound", u.graph.Bound())
	}

	samples := resample.Convert(clip, u.graph.Format())
	var err error
	voice, err = u.graph.Connect(samples)
	if err != nil {
		u.logger.Error("failed to start rendering", "error", err)
		return OutcomeRenderFailed
	}

	u.setState(StateRendering)
	u.logger.Debug("rendering",
		"codec", clip.Format.Codec,
		"duration", clip.Duration(),
		"volume", u.Volume,
		"device", u.graph.Bound())

	select {
	case <-voice.Done():
		return OutcomePlayed
	case <-timer.C:
		u.logger.Info("stopping unit", "error", ErrPlaybackTimeout, "timeout", u.timeout)
		return OutcomeTimedOut
	case <-ctx.Done():
		return OutcomeCancelled
	}
}

type decodeResult struct {
	clip audio.Clip
	err  error
}

// decodeAsync decodes on its own goroutine. A decoder panic is reported as a
// decode error. An abandoned decode finishes in the background.
func (u *Unit) decodeAsync() <-chan decodeResult {
	out := make(chan decodeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				out <- decodeResult{err: fmt.Errorf("decoder panic: %v", r)}
			}
		}()
		clip, err := u.decode(u.Data)
		out <- decodeResult{clip: clip, err: err}
	}()
	return out
}

// complete runs the callback and releases the ticket exactly once
func (u *Unit) complete(outcome Outcome) {
	u.once.Do(func() {
		defer u.ticket.finish(outcome)
		if u.OnFinished == nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				u.logger.Error("completion callback panic", "panic", r)
			}
		}()
		u.OnFinished()
	})
}
