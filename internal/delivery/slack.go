package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paperpulse/paperpulse/internal/domain"
)

// SlackConfig holds Slack sink settings.
type SlackConfig struct {
	// WebhookURL is the Slack incoming-webhook URL.
	WebhookURL string
	// Timeout is the per-attempt timeout.
	Timeout time.Duration
}

// slackMessage is the incoming-webhook request body.
type slackMessage struct {
	Text string `json:"text"`
}

// SlackSink posts digests to a Slack incoming webhook.
type SlackSink struct {
	config SlackConfig
	client *http.Client
}

var _ Sink = (*SlackSink)(nil)

// NewSlackSink creates a Slack webhook sink.
func NewSlackSink(cfg SlackConfig) *SlackSink {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SlackSink{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Send posts the rendered digest to the webhook. Slack webhooks answer
// a bare "ok" with no message ID, so the returned ID is always empty.
func (s *SlackSink) Send(ctx context.Context, payload *domain.DigestPayload) (string, error) {
	text, err := renderDigest(payload)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(slackMessage{Text: text})
	if err != nil {
		return "", fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack: post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("slack: webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return "", nil
}

// Channel names the sink.
func (s *SlackSink) Channel() string {
	return "slack"
}
