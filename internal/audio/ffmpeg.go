package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"

	"go.uber.org/zap"
)

// Converter normalizes arbitrary containers through ffmpeg
type Converter struct {
	ffmpegPath string
	sampleRate int
}

func NewConverter(ffmpegPath string, sampleRate int) *Converter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &Converter{ffmpegPath: ffmpegPath, sampleRate: sampleRate}
}

func (c *Converter) args() []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-ar", strconv.Itoa(c.sampleRate),
		"-ac", "1",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"pipe:1",
	}
}

// ToPCM converts any ffmpeg-readable input into raw 16-bit mono PCM
func (c *Converter) ToPCM(ctx context.Context, input []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.ffmpegPath, c.args()...)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Error("ffmpeg conversion failed",
			zap.String("stderr", strings.TrimSpace(stderr.String())),
			zap.Error(err))
		return nil, fmt.Errorf("%w: ffmpeg: %v", ErrUnsupportedFormat, err)
	}

	return stdout.Bytes(), nil
}

// Utterance decodes WAV input directly when it already has the expected
// layout and falls back to ffmpeg for everything else.
func (c *Converter) Utterance(ctx context.Context, input []byte) (model.Utterance, error) {
	if len(input) == 0 {
		return model.Utterance{}, fmt.Errorf("%w: empty input", ErrUnsupportedFormat)
	}

	if IsWAV(input) {
		u, err := DecodeWAV(input)
		if err == nil && u.SampleRate == c.sampleRate {
			return u, nil
		}
		if err != nil && !errors.Is(err, ErrUnsupportedFormat) {
			return model.Utterance{}, err
		}
		logger.Debug("WAV needs conversion", zap.Int("sample_rate", u.SampleRate), zap.Error(err))
	}

	pcm, err := c.ToPCM(ctx, input)
	if err != nil {
		return model.Utterance{}, err
	}
	return model.Utterance{Audio: pcm, SampleRate: c.sampleRate}, nil
}
