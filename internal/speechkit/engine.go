package speechkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStore stages long audio where the long-running API can read it
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
	GenerateKey(id, extension string) string
}

var ErrTooLong = errors.New("audio too long for sync recognition and no object storage configured")

// Engine is the unconstrained fallback recognizer
type Engine struct {
	client    *Client
	store     ObjectStore
	syncLimit int
}

// NewEngine creates the engine; store may be nil, which limits it to short audio
func NewEngine(client *Client, store ObjectStore, syncLimit int) *Engine {
	if syncLimit <= 0 || syncLimit > SyncLimitBytes {
		syncLimit = SyncLimitBytes
	}
	return &Engine{client: client, store: store, syncLimit: syncLimit}
}

func (e *Engine) Name() string {
	return "speechkit"
}

// Transcribe uses the short-audio endpoint when the utterance fits both its
// size and duration limits, and the long-running API otherwise
func (e *Engine) Transcribe(ctx context.Context, u model.Utterance) (string, error) {
	if len(u.Audio) <= e.syncLimit && u.Duration() <= SyncMaxDuration {
		return e.client.RecognizeSync(ctx, u.Audio, u.SampleRate)
	}
	if e.store == nil {
		return "", fmt.Errorf("%w: %d bytes, %s", ErrTooLong, len(u.Audio), u.Duration())
	}
	return e.transcribeLong(ctx, u)
}

func (e *Engine) transcribeLong(ctx context.Context, u model.Utterance) (string, error) {
	key := e.store.GenerateKey(uuid.New().String(), ".pcm")

	uri, err := e.store.UploadFile(ctx, key, bytes.NewReader(u.Audio), "audio/pcm")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := e.store.DeleteFile(context.WithoutCancel(ctx), key); err != nil {
			logger.Warn("Failed to delete staged audio", zap.String("key", key), zap.Error(err))
		}
	}()

	opID, err := e.client.StartRecognition(ctx, uri, u.SampleRate)
	if err != nil {
		return "", err
	}

	result, err := e.client.WaitForResult(ctx, opID)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}
