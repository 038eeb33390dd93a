// ABOUTME: Clip conversion to an output format
// ABOUTME: Remaps channels then resamples a whole clip in one pass
package resample

import "github.com/voxroute/voxroute/pkg/audio"

// Convert returns the clip's samples in the target rate and channel count
func Convert(clip audio.Clip, target audio.Format) []int32 {
	samples := RemapChannels(clip.Samples, clip.Format.Channels, target.Channels)

	if clip.Format.SampleRate == target.SampleRate || clip.Format.SampleRate <= 0 {
		return samples
	}

	r := New(clip.Format.SampleRate, target.SampleRate, target.Channels)
	out := make([]int32, r.OutputSamplesNeeded(len(samples)))
	n := r.Resample(samples, out)
	return out[:n]
}

// RemapChannels converts interleaved samples between channel counts.
// Mono is duplicated when widening; extra channels are averaged into mono
// or dropped otherwise.
func RemapChannels(samples []int32, from, to int) []int32 {
	if from == to || from <= 0 || to <= 0 {
		return samples
	}

	frames := len(samples) / from
	out := make([]int32, frames*to)

	for i := 0; i < frames; i++ {
		frame := samples[i*from : (i+1)*from]
		switch {
		case to == 1:
			var sum int64
			for _, s := range frame {
				sum += int64(s)
			}
			out[i] = int32(sum / int64(from))
		case from == 1:
			for ch := 0; ch < to; ch++ {
				out[i*to+ch] = frame[0]
			}
		default:
			for ch := 0; ch < to; ch++ {
				if ch < from {
					out[i*to+ch] = frame[ch]
				}
			}
		}
	}

	return out
}
