// ABOUTME: FIFO playback scheduler
// ABOUTME: Queues units from any producer and drains them one at a time
package playback

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	list "github.com/bahlo/generic-list-go"
	"github.com/google/uuid"
	"github.com/voxroute/voxroute/pkg/audio/decode"
)

// DefaultTimeout is the hard ceiling on a single unit
const DefaultTimeout = 30 * time.Second

// State is the scheduler's drain state
type State int

const (
	Idle State = iota
	Draining
)

func (s State) String() string {
	if s == Draining {
		return "draining"
	}
	return "idle"
}

// ChannelResolver reports a channel's effective volume and device
type ChannelResolver interface {
	Resolve(ch int) (volume int, deviceID string)
}

// Observer is notified of queue activity
type Observer interface {
	Enqueued(channel, depth int)
	Finished(channel int, outcome Outcome, elapsed time.Duration, depth int)
}

// Enqueuer accepts playback requests
type Enqueuer interface {
	Enqueue(channel int, data []byte, onFinished func()) *Ticket
}

// Config holds scheduler configuration
type Config struct {
	Graph    *Graph
	Channels ChannelResolver
	Decode   DecodeFunc
	Timeout  time.Duration
	Observer Observer
	Logger   *slog.Logger
}

// Stats tracks scheduler metrics
type Stats struct {
	Received  int64
	Played    int64
	Failed    int64
	TimedOut  int64
	Cancelled int64
}

// Scheduler owns the shared queue and the drain goroutine
type Scheduler struct {
	config Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	queue  *list.List[*Unit]
	state  State
	closed bool

	received  atomic.Int64
	played    atomic.Int64
	failed    atomic.Int64
	timedOut  atomic.Int64
	cancelled atomic.Int64
}

// New creates a scheduler
func New(config Config) *Scheduler {
	if config.Decode == nil {
		config.Decode = decode.Decode
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		config: config,
		logger: config.Logger,
		ctx:    ctx,
		cancel: cancel,
		queue:  list.New[*Unit](),
	}
}

// Enqueue appends a request to the queue and starts draining if idle.
// onFinished may be nil; it runs exactly once when the request ends.
func (s *Scheduler) Enqueue(channel int, data []byte, onFinished func()) *Ticket {
	req := Request{
		ID:         uuid.New().String(),
		Channel:    channel,
		Data:       data,
		OnFinished: onFinished,
	}
	u := newUnit(req, s.config.Graph, s.config.Decode, s.config.Timeout, s.logger)
	s.received.Add(1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("rejecting request after close", "unit", req.ID, "channel", channel)
		u.complete(OutcomeCancelled)
		s.cancelled.Add(1)
		return u.Ticket()
	}

	s.queue.PushBack(u)
	depth := s.queue.Len()
	if s.state == Idle {
		s.state = Draining
		s.wg.Add(1)
		go s.drain()
	}
	s.mu.Unlock()

	s.logger.Debug("request queued", "unit", req.ID, "channel", channel, "bytes", len(data), "depth", depth)
	if s.config.Observer != nil {
		s.config.Observer.Enqueued(channel, depth)
	}

	return u.Ticket()
}

// drain plays queued units until the queue is empty
func (s *Scheduler) drain() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		front := s.queue.Front()
		if front == nil {
			s.state = Idle
			s.mu.Unlock()
			return
		}
		u := s.queue.Remove(front)
		s.mu.Unlock()

		// Settings apply as of dequeue, not enqueue
		u.Volume, u.DeviceID = s.config.Channels.Resolve(u.Channel)

		start := time.Now()
		outcome := u.Play(s.ctx)
		elapsed := time.Since(start)

		s.record(outcome)
		s.logger.Debug("unit finished", "unit", u.ID, "channel", u.Channel, "outcome", outcome, "elapsed", elapsed)

		if s.config.Observer != nil {
			s.config.Observer.Finished(u.Channel, outcome, elapsed, s.Len())
		}
	}
}

func (s *Scheduler) record(outcome Outcome) {
	switch outcome {
	case OutcomePlayed:
		s.played.Add(1)
	case OutcomeTimedOut:
		s.timedOut.Add(1)
	case OutcomeCancelled:
		s.cancelled.Add(1)
	default:
		s.failed.Add(1)
	}
}

// State returns whether a drain goroutine is running
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Len returns the number of units waiting to play
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() Stats {
	return Stats{
		Received:  s.received.Load(),
		Played:    s.played.Load(),
		Failed:    s.failed.Load(),
		TimedOut:  s.timedOut.Load(),
		Cancelled: s.cancelled.Load(),
	}
}

// Close stops accepting requests, cancels queued ones and waits for the
// drain goroutine. Every queued unit still fires its completion.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pending := s.queue.Len()
	s.mu.Unlock()

	s.logger.Info("scheduler closing", "pending", pending)
	s.cancel()
	s.wg.Wait()
}
