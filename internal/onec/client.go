// Package onec talks to the 1C HTTP service that applies commands and
// publishes configuration metadata.
package onec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"

	"go.uber.org/zap"
)

const (
	commandsPath = "/commands"
	metadataPath = "/metadata"
)

type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: timeout},
	}
}

// StatusError is a non-2xx reply from the service
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("1c service returned status=%d, body=%s", e.Status, e.Body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// Apply writes the command to the service's command register
func (c *Client) Apply(ctx context.Context, cmd model.Command) error {
	payload, err := cmd.MarshalPayload()
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, commandsPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Idempotency-Key", cmd.ID)

	if _, err := c.do(req); err != nil {
		return err
	}

	logger.Debug("Command applied by 1C",
		zap.String("command_id", cmd.ID),
		zap.String("intent", cmd.Intent))
	return nil
}

type metadataResponse struct {
	Names []string `json:"names"`
}

// FetchMetadataNames returns configuration object names. The service may
// answer with a bare array or with {"names": [...]}.
func (c *Client) FetchMetadataNames(ctx context.Context) ([]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, metadataPath, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal(body, &names); err == nil {
		return names, nil
	}

	var wrapped metadataResponse
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return wrapped.Names, nil
}

func (c *Client) SourceName() string {
	return "onec"
}
