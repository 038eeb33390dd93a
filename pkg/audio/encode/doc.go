// ABOUTME: Audio encoder package for producing playable buffers
// ABOUTME: Provides PCM sample packing and WAV containers
// Package encode turns decoded clips back into bytes.
//
// The sender CLI and tests use it to build WAV buffers that the playback
// pipeline can decode.
//
// Example:
//
//	clip := audio.Tone(440, time.Second, 48000, 2)
//	data, err := encode.WAV(clip, 16)
package encode
