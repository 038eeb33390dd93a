// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes complete FLAC buffers frame by frame to int32 samples
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/voxroute/voxroute/pkg/audio"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct{}

// NewFLAC creates a new FLAC decoder
func NewFLAC() Decoder {
	return &FLACDecoder{}
}

// Decode converts FLAC bytes to int32 samples
func (d *FLACDecoder) Decode(data []byte) (audio.Clip, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return audio.Clip{}, fmt.Errorf("failed to open flac stream: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bitDepth := int(stream.Info.BitsPerSample)

	samples := make([]int32, 0, int(stream.Info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return audio.Clip{}, fmt.Errorf("flac frame decode error: %w", err)
		}

		if len(frame.Subframes) < channels {
			return audio.Clip{}, fmt.Errorf("flac frame has %d subframes, want %d",
				len(frame.Subframes), channels)
		}

		// Interleave the per-channel subframes
		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, audio.SampleFromBits(frame.Subframes[ch].Samples[i], bitDepth))
			}
		}
	}

	return audio.Clip{
		Format: audio.Format{
			Codec:      CodecFLAC,
			SampleRate: int(stream.Info.SampleRate),
			Channels:   channels,
			BitDepth:   bitDepth,
		},
		Samples: samples,
	}, nil
}
