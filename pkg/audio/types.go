// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, decoded clips and the volume-to-gain mapping
package audio

import "time"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

const (
	// UnityVolume is the channel volume that maps to a gain of 1.0
	UnityVolume = 50

	// MaxVolume is the upper bound of the channel volume domain
	MaxVolume = 200
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Clip is a fully decoded audio buffer
type Clip struct {
	Format  Format
	Samples []int32 // interleaved PCM in 24-bit range
}

// Frames returns the number of sample frames in the clip
func (c Clip) Frames() int {
	if c.Format.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Format.Channels
}

// Duration returns the playback length of the clip
func (c Clip) Duration() time.Duration {
	if c.Format.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.Format.SampleRate)
}

// ClampVolume limits a volume to the 0-200 domain
func ClampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > MaxVolume {
		return MaxVolume
	}
	return volume
}

// GainForVolume maps a channel volume to a linear gain factor.
// 50 is unity, 0 is silence and 200 is 4x.
func GainForVolume(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(ClampVolume(volume)) / UnityVolume
}

// ApplyGain scales samples in place with clipping protection
func ApplyGain(samples []int32, gain float64) {
	if gain == 1.0 {
		return
	}
	for i, sample := range samples {
		scaled := int64(float64(sample) * gain)

		// Clamp to 24-bit range to prevent overflow
		if scaled > Max24Bit {
			scaled = Max24Bit
		} else if scaled < Min24Bit {
			scaled = Min24Bit
		}

		samples[i] = int32(scaled)
	}
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	// Left-shift to position 16-bit value in upper bits
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// SampleFromFloat converts a [-1, 1] float sample to the 24-bit range
func SampleFromFloat(v float64) int32 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int32(v * Max24Bit)
}

// SampleFromBits rescales a signed sample of the given bit depth to 24-bit range
func SampleFromBits(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24:
		return sample
	case bitDepth < 24:
		return sample << uint(24-bitDepth)
	default:
		return sample >> uint(bitDepth-24)
	}
}
