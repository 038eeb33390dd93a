// ABOUTME: Completion handle returned to producers
// ABOUTME: Closed after the unit's callback returns
package playback

import "context"

// Ticket tracks one enqueued request
type Ticket struct {
	ID      string
	Channel int

	done    chan struct{}
	outcome Outcome
}

func newTicket(id string, channel int) *Ticket {
	return &Ticket{
		ID:      id,
		Channel: channel,
		done:    make(chan struct{}),
	}
}

// Done is closed when the request has finished
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the request finishes or ctx ends
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Outcome reports how the request ended; only valid after Done
func (t *Ticket) Outcome() Outcome {
	<-t.done
	return t.outcome
}

func (t *Ticket) finish(outcome Outcome) {
	t.outcome = outcome
	close(t.done)
}
