package speech

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"voxcmd/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVoskEngine_MissingModel(t *testing.T) {
	_, err := NewVoskEngine(filepath.Join(t.TempDir(), "missing-model"), 16000, []string{"покажи"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "vosk model not found")
}

func newTestEngine(t *testing.T, phrases []string) *VoskEngine {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	modelPath := os.Getenv("VOSK_MODEL_PATH")
	if modelPath == "" {
		t.Skip("VOSK_MODEL_PATH is not set")
	}

	engine, err := NewVoskEngine(modelPath, 16000, phrases)
	require.NoError(t, err)
	return engine
}

func TestVoskEngine_Integration(t *testing.T) {
	engine := newTestEngine(t, []string{"покажи", "номенклатуру", "сохрани", "документ"})
	defer engine.Close()

	ctx := context.Background()
	silence := make([]byte, 16000*2)

	t.Run("sample rate mismatch", func(t *testing.T) {
		_, err := engine.Transcribe(ctx, model.Utterance{Audio: silence, SampleRate: 8000})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "8000")
	})

	t.Run("silence", func(t *testing.T) {
		text, err := engine.Transcribe(ctx, model.Utterance{Audio: silence, SampleRate: 16000})
		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("grammar override", func(t *testing.T) {
		_, err := engine.Transcribe(ctx, model.Utterance{Audio: silence, SampleRate: 16000, Grammar: []string{"выход"}})
		assert.NoError(t, err)
	})

	t.Run("empty grammar override uses the configured grammar", func(t *testing.T) {
		_, err := engine.Transcribe(ctx, model.Utterance{Audio: silence, SampleRate: 16000, Grammar: []string{"", "[unk]"}})
		assert.NoError(t, err)
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := engine.Transcribe(canceled, model.Utterance{Audio: silence, SampleRate: 16000})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestVoskEngine_UnconstrainedWithoutPhrases(t *testing.T) {
	engine := newTestEngine(t, nil)
	defer engine.Close()

	text, err := engine.Transcribe(context.Background(), model.Utterance{Audio: make([]byte, 16000*2), SampleRate: 16000})
	require.NoError(t, err)
	assert.NotContains(t, text, "[unk]")
}

func TestVoskEngine_TranscribeAfterClose(t *testing.T) {
	engine := newTestEngine(t, []string{"сохрани"})

	engine.Close()
	engine.Close()

	_, err := engine.Transcribe(context.Background(), model.Utterance{Audio: make([]byte, 320), SampleRate: 16000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}
