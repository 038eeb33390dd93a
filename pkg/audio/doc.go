// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Clip types, gain mapping and sample conversion functions
// Package audio provides fundamental audio types and utilities.
//
// This package defines core types used throughout voxroute:
//   - Format: Describes audio format (codec, sample rate, channels, bit depth)
//   - Clip: A completely decoded buffer of interleaved PCM
//
// Samples are carried as int32 in 24-bit range. Channel volumes live in the
// 0-200 domain where 50 is unity gain:
//
//	gain := audio.GainForVolume(100, false) // 2.0
//	audio.ApplyGain(clip.Samples, gain)
package audio
