// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Decodes complete Ogg Opus buffers to int32 samples
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/voxroute/voxroute/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

const (
	// opusSampleRate is the fixed output rate of libopusfile
	opusSampleRate = 48000

	// opusMaxFrame is the largest frame (120ms at 48kHz) per channel
	opusMaxFrame = 5760
)

// OpusDecoder decodes Ogg Opus audio
type OpusDecoder struct{}

// NewOpus creates a new Opus decoder
func NewOpus() Decoder {
	return &OpusDecoder{}
}

// Decode converts Ogg Opus bytes to int32 samples
func (d *OpusDecoder) Decode(data []byte) (audio.Clip, error) {
	channels, err := opusChannels(data)
	if err != nil {
		return audio.Clip{}, err
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return audio.Clip{}, fmt.Errorf("failed to open opus stream: %w", err)
	}
	defer stream.Close()

	pcm16 := make([]int16, opusMaxFrame*channels)
	var samples []int32
	for {
		n, err := stream.Read(pcm16)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return audio.Clip{}, fmt.Errorf("opus decode failed: %w", err)
		}

		// n is samples per channel
		for i := 0; i < n*channels; i++ {
			samples = append(samples, audio.SampleFromInt16(pcm16[i]))
		}
	}

	return audio.Clip{
		Format: audio.Format{
			Codec:      CodecOpus,
			SampleRate: opusSampleRate,
			Channels:   channels,
			BitDepth:   16,
		},
		Samples: samples,
	}, nil
}

// opusChannels reads the channel count from the OpusHead packet
func opusChannels(data []byte) (int, error) {
	idx := bytes.Index(data, []byte("OpusHead"))
	// "OpusHead" + version byte + channel count byte
	if idx < 0 || len(data) < idx+10 {
		return 0, fmt.Errorf("missing OpusHead packet")
	}

	channels := int(data[idx+9])
	if channels == 0 {
		return 0, fmt.Errorf("invalid opus channel count: 0")
	}
	return channels, nil
}
