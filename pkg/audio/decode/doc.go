// ABOUTME: Audio decoder package for whole-buffer decoding
// ABOUTME: Provides Decoder interface, format sniffing and WAV/FLAC/Opus/MP3 decoders
// Package decode turns complete encoded audio buffers into PCM clips.
//
// Supports: WAV (via beep), FLAC (via mewkiz/flac), Ogg Opus (via libopusfile)
// and MP3 (via go-mp3). The container is detected from its magic bytes.
//
// All decoders output int32 samples in 24-bit range.
//
// Example:
//
//	clip, err := decode.Decode(data)
//	if errors.Is(err, decode.ErrUnknownFormat) { ... }
package decode
