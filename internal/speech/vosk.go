// Package speech provides the grammar-constrained fast recognition engine.
package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"voxcmd/internal/grammar"
	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"

	vosk "github.com/alphacep/vosk-api/go"
	"go.uber.org/zap"
)

type voskResult struct {
	Text string `json:"text"`
}

// VoskEngine shares one model across calls. The default recognizer is
// guarded by a mutex; utterances carrying their own grammar get a
// short-lived recognizer.
type VoskEngine struct {
	life       sync.RWMutex // held for reading while the model is in use
	mu         sync.Mutex
	model      *vosk.VoskModel
	recognizer *vosk.VoskRecognizer
	sampleRate float64
}

func NewVoskEngine(modelPath string, sampleRate int, phrases []string) (*VoskEngine, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("vosk model not found: %s", modelPath)
	}

	phrases = grammar.Clean(phrases)

	m, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vosk model: %w", err)
	}

	rec, err := newRecognizer(m, float64(sampleRate), phrases)
	if err != nil {
		m.Free()
		return nil, err
	}

	logger.Info("Vosk engine loaded",
		zap.String("model", modelPath),
		zap.Int("sample_rate", sampleRate),
		zap.Int("phrases", len(phrases)))

	return &VoskEngine{
		model:      m,
		recognizer: rec,
		sampleRate: float64(sampleRate),
	}, nil
}

func (v *VoskEngine) Name() string {
	return "vosk"
}

// Transcribe expects 16-bit mono PCM at the engine's sample rate
func (v *VoskEngine) Transcribe(ctx context.Context, u model.Utterance) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if u.SampleRate != 0 && float64(u.SampleRate) != v.sampleRate {
		return "", fmt.Errorf("vosk expects %v Hz audio, got %d", v.sampleRate, u.SampleRate)
	}

	v.life.RLock()
	defer v.life.RUnlock()

	if v.model == nil {
		return "", fmt.Errorf("vosk engine is closed")
	}

	if phrases := grammar.Clean(u.Grammar); len(phrases) > 0 {
		return v.transcribeWithGrammar(phrases, u.Audio)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	return decode(v.recognizer, u.Audio)
}

func (v *VoskEngine) transcribeWithGrammar(phrases []string, pcm []byte) (string, error) {
	rec, err := newRecognizer(v.model, v.sampleRate, phrases)
	if err != nil {
		return "", err
	}
	defer rec.Free()

	return decode(rec, pcm)
}

// newRecognizer constrains recognition to phrases; with none it falls back to
// the model's full vocabulary.
func newRecognizer(m *vosk.VoskModel, sampleRate float64, phrases []string) (*vosk.VoskRecognizer, error) {
	var (
		rec *vosk.VoskRecognizer
		err error
	)
	if len(phrases) == 0 {
		rec, err = vosk.NewRecognizer(m, sampleRate)
	} else {
		grm, encErr := grammar.Encode(phrases)
		if encErr != nil {
			return nil, encErr
		}
		rec, err = vosk.NewRecognizerGrm(m, sampleRate, grm)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create vosk recognizer: %w", err)
	}
	return rec, nil
}

func decode(rec *vosk.VoskRecognizer, pcm []byte) (string, error) {
	rec.AcceptWaveform(pcm)
	raw := rec.FinalResult()
	rec.Reset()

	var result voskResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return "", fmt.Errorf("failed to parse vosk result: %w", err)
	}

	logger.Debug("Vosk result", zap.String("text", result.Text))
	return result.Text, nil
}

func (v *VoskEngine) Close() {
	v.life.Lock()
	defer v.life.Unlock()

	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
}
