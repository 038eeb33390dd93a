// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for all audio decoders plus the sniffing dispatcher
package decode

import (
	"errors"
	"fmt"

	"github.com/voxroute/voxroute/pkg/audio"
)

// ErrUnknownFormat is returned when no decoder recognizes the buffer
var ErrUnknownFormat = errors.New("unknown audio format")

// Decoder decodes a complete encoded buffer to PCM
type Decoder interface {
	Decode(data []byte) (audio.Clip, error)
}

// New creates a decoder for the named codec
func New(codec string) (Decoder, error) {
	switch codec {
	case CodecWAV:
		return NewWAV(), nil
	case CodecFLAC:
		return NewFLAC(), nil
	case CodecOpus:
		return NewOpus(), nil
	case CodecMP3:
		return NewMP3(), nil
	default:
		return nil, fmt.Errorf("unsupported codec: %s", codec)
	}
}

// Decode sniffs the container format and decodes the buffer
func Decode(data []byte) (audio.Clip, error) {
	codec := Sniff(data)
	if codec == "" {
		return audio.Clip{}, ErrUnknownFormat
	}

	dec, err := New(codec)
	if err != nil {
		return audio.Clip{}, err
	}

	clip, err := dec.Decode(data)
	if err != nil {
		return audio.Clip{}, err
	}
	if len(clip.Samples) == 0 {
		return audio.Clip{}, fmt.Errorf("%s buffer contains no audio", codec)
	}

	return clip, nil
}
