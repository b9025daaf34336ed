// Package audio turns uploaded audio into 16-bit mono PCM utterances.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"voxcmd/pkg/model"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

const (
	formatPCM     = 1
	bitsPerSample = 16
)

// IsWAV reports whether data starts with a RIFF/WAVE header
func IsWAV(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE"))
}

// DecodeWAV extracts the PCM samples of a 16-bit mono PCM WAV file. Any
// other layout fails with ErrUnsupportedFormat so the caller can convert it.
func DecodeWAV(data []byte) (model.Utterance, error) {
	if !IsWAV(data) {
		return model.Utterance{}, fmt.Errorf("%w: not a RIFF/WAVE file", ErrUnsupportedFormat)
	}

	var (
		sampleRate int
		haveFmt    bool
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + size
		if end > len(data) || end < body {
			// truncated data chunks are common from streaming encoders
			if id == "data" && haveFmt {
				end = len(data)
			} else {
				return model.Utterance{}, fmt.Errorf("%w: chunk %q overruns file", ErrUnsupportedFormat, id)
			}
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return model.Utterance{}, fmt.Errorf("%w: short fmt chunk", ErrUnsupportedFormat)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			channels := binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if format != formatPCM || channels != 1 || bits != bitsPerSample {
				return model.Utterance{}, fmt.Errorf("%w: format=%d channels=%d bits=%d",
					ErrUnsupportedFormat, format, channels, bits)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return model.Utterance{}, fmt.Errorf("%w: data before fmt chunk", ErrUnsupportedFormat)
			}
			pcm := data[body:end]
			if len(pcm)%2 != 0 {
				pcm = pcm[:len(pcm)-1]
			}
			return model.Utterance{Audio: pcm, SampleRate: sampleRate}, nil
		}

		// chunks are word aligned
		pos = end + size%2
	}

	return model.Utterance{}, fmt.Errorf("%w: no data chunk", ErrUnsupportedFormat)
}

// EncodeWAV wraps 16-bit mono PCM in a minimal WAV header
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	const channels = 1
	byteRate := sampleRate * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)

	out := make([]byte, 44, 44+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], formatPCM)
	binary.LittleEndian.PutUint16(out[22:24], channels)
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	return append(out, pcm...)
}
