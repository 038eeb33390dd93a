// ABOUTME: Sine tone generator
// ABOUTME: Produces test clips for the sender CLI and package tests
package audio

import (
	"math"
	"time"
)

// Tone generates a sine clip at half amplitude
func Tone(frequency float64, duration time.Duration, sampleRate, channels int) Clip {
	frames := int(duration * time.Duration(sampleRate) / time.Second)
	samples := make([]int32, frames*channels)

	for i := 0; i < frames; i++ {
		t := float64(i) / float64(sampleRate)
		v := SampleFromFloat(math.Sin(2*math.Pi*frequency*t) * 0.5)
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = v
		}
	}

	return Clip{
		Format: Format{
			Codec:      "pcm",
			SampleRate: sampleRate,
			Channels:   channels,
			BitDepth:   24,
		},
		Samples: samples,
	}
}
