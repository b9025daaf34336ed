package audio

import (
	"context"
	"encoding/binary"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeWAV_RoundTrip(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	u, err := DecodeWAV(EncodeWAV(pcm, 16000))

	require.NoError(t, err)
	assert.Equal(t, pcm, u.Audio)
	assert.Equal(t, 16000, u.SampleRate)
}

func TestDecodeWAV_SkipsExtraChunks(t *testing.T) {
	wav := EncodeWAV([]byte{9, 0, 8, 0}, 16000)

	// insert an odd-sized LIST chunk between fmt and data
	list := []byte("LIST\x03\x00\x00\x00abc\x00")
	withList := append(append(append([]byte{}, wav[:36]...), list...), wav[36:]...)
	binary.LittleEndian.PutUint32(withList[4:8], uint32(len(withList)-8))

	u, err := DecodeWAV(withList)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 0, 8, 0}, u.Audio)
}

func TestDecodeWAV_TruncatedData(t *testing.T) {
	wav := EncodeWAV([]byte{1, 0, 2, 0, 3, 0}, 16000)
	u, err := DecodeWAV(wav[:len(wav)-3])

	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0}, u.Audio)
}

func TestDecodeWAV_Unsupported(t *testing.T) {
	stereo := EncodeWAV([]byte{0, 0, 0, 0}, 16000)
	binary.LittleEndian.PutUint16(stereo[22:24], 2)

	tests := []struct {
		name string
		data []byte
	}{
		{"not riff", []byte("OggS\x00\x02")},
		{"stereo", stereo},
		{"no data chunk", EncodeWAV(nil, 16000)[:36]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeWAV(tt.data)
			assert.ErrorIs(t, err, ErrUnsupportedFormat)
		})
	}
}

func TestIsWAV(t *testing.T) {
	assert.True(t, IsWAV(EncodeWAV(nil, 8000)))
	assert.False(t, IsWAV([]byte("RIFF")))
	assert.False(t, IsWAV(nil))
}

func TestConverter_WAVPassthrough(t *testing.T) {
	c := NewConverter("/nonexistent/ffmpeg", 16000)
	pcm := []byte{5, 0, 6, 0}

	u, err := c.Utterance(context.Background(), EncodeWAV(pcm, 16000))

	require.NoError(t, err)
	assert.Equal(t, pcm, u.Audio)
}

func TestConverter_EmptyInput(t *testing.T) {
	_, err := NewConverter("", 0).Utterance(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestConverter_MissingBinary(t *testing.T) {
	c := NewConverter("/nonexistent/ffmpeg", 16000)
	_, err := c.Utterance(context.Background(), []byte("OggS not really"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestConverter_Resample(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping ffmpeg test in short mode")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	// one second of silence at 8 kHz
	input := EncodeWAV(make([]byte, 16000), 8000)
	u, err := NewConverter("ffmpeg", 16000).Utterance(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, 16000, u.SampleRate)
	assert.InDelta(t, 32000, len(u.Audio), 2000)
}
