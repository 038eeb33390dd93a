// ABOUTME: voxroute protocol message type definitions
// ABOUTME: JSON envelopes and the binary audio frame layout
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the protocol version advertised in server/hello
const Version = 1

// Message types
const (
	TypeServerHello     = "server/hello"
	TypePlaybackDone    = "playback/done"
	TypePlaybackTimeout = "playback/timeout"
	TypeError           = "error"
)

// FrameHeaderSize is the channel byte preceding audio in a binary frame
const FrameHeaderSize = 1

// ErrEmptyFrame is returned for a frame without audio bytes
var ErrEmptyFrame = errors.New("frame has no audio")

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Envelope is a received message with its payload left undecoded
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v
func (e Envelope) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}

// ServerHello is sent when a WebSocket producer connects
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
	Channels int    `json:"channels"`
}

// PlaybackDone reports that a submitted buffer finished
type PlaybackDone struct {
	ID      string `json:"id"`
	Channel int    `json:"channel"`
	Outcome string `json:"outcome"`
}

// PlaybackTimeout reports that the server stopped waiting for a buffer.
// The buffer may still play later.
type PlaybackTimeout struct {
	ID      string `json:"id"`
	Channel int    `json:"channel"`
}

// ErrorPayload describes a rejected frame
type ErrorPayload struct {
	Message string `json:"message"`
}

// ChannelSetting mirrors one channel's settings on the wire
type ChannelSetting struct {
	Channel  int    `json:"channel"`
	Volume   int    `json:"volume"`
	IsMute   bool   `json:"isMute"`
	DeviceID string `json:"deviceId"`
}

// Device mirrors one output device on the wire
type Device struct {
	ID      string `json:"deviceId"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Default bool   `json:"default,omitempty"`
}

// EncodeFrame builds a binary frame for a channel
func EncodeFrame(channel int, audio []byte) ([]byte, error) {
	if channel < 0 || channel > 255 {
		return nil, fmt.Errorf("channel %d does not fit in a frame", channel)
	}
	frame := make([]byte, FrameHeaderSize+len(audio))
	frame[0] = byte(channel)
	copy(frame[FrameHeaderSize:], audio)
	return frame, nil
}

// DecodeFrame splits a binary frame into channel and audio
func DecodeFrame(frame []byte) (int, []byte, error) {
	if len(frame) <= FrameHeaderSize {
		return 0, nil, ErrEmptyFrame
	}
	return int(frame[0]), frame[FrameHeaderSize:], nil
}
