// ABOUTME: WAV container writer
// ABOUTME: Wraps PCM encoder output in a canonical RIFF/WAVE header
package encode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/voxroute/voxroute/pkg/audio"
)

const wavHeaderSize = 44

// WAV encodes a clip as a canonical PCM WAV file
func WAV(clip audio.Clip, bitDepth int) ([]byte, error) {
	if clip.Format.Channels <= 0 || clip.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid clip format: %dHz %dch",
			clip.Format.SampleRate, clip.Format.Channels)
	}

	enc, err := NewPCM(bitDepth)
	if err != nil {
		return nil, err
	}

	data, err := enc.Encode(clip.Samples)
	if err != nil {
		return nil, fmt.Errorf("failed to encode samples: %w", err)
	}

	blockAlign := clip.Format.Channels * bitDepth / 8
	byteRate := clip.Format.SampleRate * blockAlign

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(data)))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(clip.Format.Channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(clip.Format.SampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitDepth))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	return buf.Bytes(), nil
}
