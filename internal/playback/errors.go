// ABOUTME: Playback error kinds
// ABOUTME: Sentinels logged by units; producers only observe completion
package playback

import "errors"

var (
	// ErrDecode means the buffer could not be decoded
	ErrDecode = errors.New("failed to decode audio")

	// ErrDeviceBind means the channel's device could not be bound
	ErrDeviceBind = errors.New("failed to bind output device")

	// ErrPlaybackTimeout means rendering hit the hard ceiling
	ErrPlaybackTimeout = errors.New("playback timed out")
)
