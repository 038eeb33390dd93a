// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF/WAVE buffers through beep's wav streamer
package decode

import (
	"bytes"
	"fmt"

	"github.com/gopxl/beep/v2/wav"
	"github.com/voxroute/voxroute/pkg/audio"
)

// wavChunkFrames is the streamer read size
const wavChunkFrames = 1024

// WAVDecoder decodes WAV audio
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV() Decoder {
	return &WAVDecoder{}
}

// Decode converts WAV bytes to int32 samples
func (d *WAVDecoder) Decode(data []byte) (audio.Clip, error) {
	streamer, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return audio.Clip{}, fmt.Errorf("failed to open wav stream: %w", err)
	}
	defer streamer.Close()

	// beep always yields stereo frames; mono sources have equal columns
	channels := format.NumChannels
	if channels < 1 || channels > 2 {
		return audio.Clip{}, fmt.Errorf("unsupported wav channel count: %d", channels)
	}

	// The header's data size is untrusted; never reserve more than the
	// buffer can actually hold
	frames := streamer.Len()
	if bytesPerFrame := channels * format.Precision; bytesPerFrame > 0 {
		frames = min(frames, len(data)/bytesPerFrame)
	}
	samples := make([]int32, 0, max(frames, 0)*channels)
	buf := make([][2]float64, wavChunkFrames)
	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			samples = append(samples, audio.SampleFromFloat(buf[i][0]))
			if channels == 2 {
				samples = append(samples, audio.SampleFromFloat(buf[i][1]))
			}
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return audio.Clip{}, fmt.Errorf("wav decode error: %w", err)
	}

	return audio.Clip{
		Format: audio.Format{
			Codec:      CodecWAV,
			SampleRate: int(format.SampleRate),
			Channels:   channels,
			BitDepth:   format.Precision * 8,
		},
		Samples: samples,
	}, nil
}
