// ABOUTME: Container format detection
// ABOUTME: Identifies audio buffers by their leading magic bytes
package decode

import "bytes"

// Codec names reported by Sniff
const (
	CodecWAV  = "wav"
	CodecFLAC = "flac"
	CodecOpus = "opus"
	CodecMP3  = "mp3"
)

// oggPageScan bounds how far into an Ogg stream we look for the Opus header
const oggPageScan = 512

// Sniff returns the codec of data or "" when it is not recognized
func Sniff(data []byte) string {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return CodecWAV
	case bytes.HasPrefix(data, []byte("fLaC")):
		return CodecFLAC
	case bytes.HasPrefix(data, []byte("OggS")):
		head := data
		if len(head) > oggPageScan {
			head = head[:oggPageScan]
		}
		if bytes.Contains(head, []byte("OpusHead")) {
			return CodecOpus
		}
		return ""
	case bytes.HasPrefix(data, []byte("ID3")):
		return CodecMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return CodecMP3
	}
	return ""
}
