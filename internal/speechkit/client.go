package speechkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"voxcmd/pkg/logger"
	"voxcmd/pkg/resilience"

	"go.uber.org/zap"
)

const (
	SyncURL      = "https://stt.api.cloud.yandex.net/speech/v1/stt:recognize"
	RecognizeURL = "https://transcribe.api.cloud.yandex.net/speech/stt/v2/longRunningRecognize"
	OperationURL = "https://operation.api.cloud.yandex.net/operations"

	// SyncLimitBytes is the largest body the short-audio endpoint accepts
	SyncLimitBytes = 1 << 20
	// SyncMaxDuration is the longest audio the short-audio endpoint accepts
	SyncMaxDuration = 30 * time.Second
)

type Config struct {
	APIKey            string
	FolderID          string
	Language          string
	Model             string
	PollInterval      time.Duration
	MaxWait           time.Duration
	RequestsPerSecond int

	// endpoint overrides, empty means the public Yandex Cloud URLs
	SyncURL      string
	RecognizeURL string
	OperationURL string
}

type Client struct {
	cfg     Config
	client  *http.Client
	limiter *resilience.RateLimiter
}

func NewClient(cfg Config) *Client {
	if cfg.Language == "" {
		cfg.Language = "ru-RU"
	}
	if cfg.Model == "" {
		cfg.Model = "general"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 5 * time.Minute
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 20
	}
	if cfg.SyncURL == "" {
		cfg.SyncURL = SyncURL
	}
	if cfg.RecognizeURL == "" {
		cfg.RecognizeURL = RecognizeURL
	}
	if cfg.OperationURL == "" {
		cfg.OperationURL = OperationURL
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: resilience.NewRateLimiter(cfg.RequestsPerSecond, time.Second/time.Duration(cfg.RequestsPerSecond)),
	}
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Api-Key %s", c.cfg.APIKey))
	if c.cfg.FolderID != "" {
		req.Header.Set("x-folder-id", c.cfg.FolderID)
	}
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// RecognizeSync transcribes short 16-bit PCM audio in one request
func (c *Client) RecognizeSync(ctx context.Context, pcm []byte, sampleRate int) (string, error) {
	q := url.Values{}
	q.Set("lang", c.cfg.Language)
	q.Set("topic", c.cfg.Model)
	q.Set("format", "lpcm")
	q.Set("sampleRateHertz", strconv.Itoa(sampleRate))
	if c.cfg.FolderID != "" {
		q.Set("folderId", c.cfg.FolderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SyncURL+"?"+q.Encode(), bytes.NewReader(pcm))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/octet-stream")

	body, status, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}

	var res SyncResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: status=%d: %w", status, err)
	}
	if status != http.StatusOK || res.ErrorCode != "" {
		return "", fmt.Errorf("recognition request failed: status=%d, code=%s, message=%s",
			status, res.ErrorCode, res.ErrorMessage)
	}

	logger.Debug("Sync recognition completed", zap.Int("bytes", len(pcm)))
	return res.Result, nil
}

// StartRecognition starts long-running recognition of PCM audio at uri
func (c *Client) StartRecognition(ctx context.Context, uri string, sampleRate int) (string, error) {
	reqBody := RecognitionRequest{
		Config: RecognitionConfig{
			Specification: Specification{
				LanguageCode:      c.cfg.Language,
				Model:             c.cfg.Model,
				AudioEncoding:     "LINEAR16_PCM",
				SampleRateHertz:   sampleRate,
				AudioChannelCount: 1,
				LiteratureText:    false,
				RawResults:        true,
			},
		},
		Audio: AudioSource{URI: uri},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RecognizeURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	body, status, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("recognition request failed: status=%d, body=%s", status, string(body))
	}

	var op OperationResponse
	if err := json.Unmarshal(body, &op); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	logger.Info("Long-running recognition started", zap.String("operation_id", op.ID))
	return op.ID, nil
}

// WaitForResult polls the operation until it is done, ctx is cancelled or
// MaxWait elapses.
func (c *Client) WaitForResult(ctx context.Context, operationID string) (*RecognitionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.MaxWait)
	defer cancel()

	opURL := fmt.Sprintf("%s/%s", c.cfg.OperationURL, operationID)
	started := time.Now()
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		c.authorize(req)

		body, status, err := c.do(ctx, req)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("operation check failed: status=%d, body=%s", status, string(body))
		}

		var op OperationResponse
		if err := json.Unmarshal(body, &op); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}

		if op.Done {
			if op.Error != nil {
				return nil, fmt.Errorf("recognition failed: %s (code: %d)", op.Error.Message, op.Error.Code)
			}
			result := op.Response
			if result == nil {
				result = &RecognitionResult{}
			}

			logger.Info("Long-running recognition completed",
				zap.String("operation_id", operationID),
				zap.Int("chunks", len(result.Chunks)),
				zap.Duration("elapsed", time.Since(started)))
			return result, nil
		}

		logger.Debug("Recognition in progress",
			zap.String("operation_id", operationID),
			zap.Duration("elapsed", time.Since(started)))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("recognition timeout exceeded: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
