// ABOUTME: Single voice slot shared by all backends
// ABOUTME: Tracks the connected voice and the number of frames rendered
package output

import (
	"fmt"
	"sync/atomic"
	"time"
)

// slot holds the connected voice; device callbacks pull from it
type slot struct {
	voice      atomic.Pointer[Voice]
	frames     atomic.Int64
	closed     atomic.Bool
	sampleRate int
	channels   int
}

func (s *slot) init(sampleRate, channels int) {
	s.sampleRate = sampleRate
	s.channels = channels
}

// pull fills dst with the connected voice or silence
func (s *slot) pull(dst []int32) {
	if v := s.voice.Load(); v != nil {
		v.Read(dst)
	} else {
		clear(dst)
	}
	s.frames.Add(int64(len(dst) / s.channels))
}

// Connect starts rendering a voice, replacing any previous one
func (s *slot) Connect(v *Voice) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if v == nil {
		return fmt.Errorf("nil voice")
	}
	s.voice.Store(v)
	return nil
}

// Disconnect stops rendering v if it is still connected
func (s *slot) Disconnect(v *Voice) {
	s.voice.CompareAndSwap(v, nil)
}

// Clock returns the render position derived from frames pulled
func (s *slot) Clock() time.Duration {
	return time.Duration(s.frames.Load()) * time.Second / time.Duration(s.sampleRate)
}

// shutdown drops the voice and refuses further connections
func (s *slot) shutdown() {
	s.closed.Store(true)
	if v := s.voice.Swap(nil); v != nil {
		v.Stop()
	}
}
