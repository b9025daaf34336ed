// Package recognizer runs the two-tier speech-to-text cascade and turns the
// winning transcript into an intent.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voxcmd/internal/grammar"
	"voxcmd/internal/textnorm"
	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"

	"go.uber.org/zap"
)

// ErrRecognition is returned when the fallback engine cannot produce text
var ErrRecognition = errors.New("recognition failed")

// Transcriber turns audio into raw text
type Transcriber interface {
	Transcribe(ctx context.Context, u model.Utterance) (string, error)
	Name() string
}

// Extractor maps normalized text to an intent
type Extractor interface {
	Extract(text string) model.Intent
}

// Outcome is the cascade result before canonicalization
type Outcome struct {
	Transcript model.Transcript
	Intent     model.Intent
}

type Cascade struct {
	fast      Transcriber
	fallback  Transcriber
	extractor Extractor
}

func NewCascade(fast, fallback Transcriber, extractor Extractor) *Cascade {
	return &Cascade{
		fast:      fast,
		fallback:  fallback,
		extractor: extractor,
	}
}

// Recognize tries the fast engine first and only escalates to the fallback
// engine when the fast transcript extracts to Unknown or contains the
// out-of-grammar token. The fallback result is final even if it is Unknown
// as well.
func (c *Cascade) Recognize(ctx context.Context, u model.Utterance) (*Outcome, error) {
	text, err := c.fast.Transcribe(ctx, u)
	if err != nil {
		logger.Warn("Fast engine failed, escalating",
			zap.String("engine", c.fast.Name()),
			zap.Error(err))
		text = ""
	}

	normalized := textnorm.Normalize(text)
	if strings.Contains(text, grammar.Unknown) {
		logger.Debug("Fast transcript has out-of-grammar words, escalating",
			zap.String("text", text))
	} else if intent := c.extractor.Extract(normalized); !intent.IsUnknown() {
		logger.Debug("Recognized on fast path",
			zap.String("text", normalized),
			zap.String("intent", intent.Name))
		return &Outcome{
			Transcript: model.Transcript{Text: normalized, Engine: model.EngineFast},
			Intent:     intent,
		}, nil
	}

	text, err = c.fallback.Transcribe(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRecognition, c.fallback.Name(), err)
	}

	normalized = textnorm.Normalize(text)
	intent := c.extractor.Extract(normalized)
	logger.Debug("Recognized on fallback path",
		zap.String("text", normalized),
		zap.String("intent", intent.Name))

	return &Outcome{
		Transcript: model.Transcript{Text: normalized, Engine: model.EngineFallback},
		Intent:     intent,
	}, nil
}
