package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/paperpulse/paperpulse/internal/domain"
)

// defaultTelegramBaseURL is the Telegram Bot API base URL.
const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramConfig holds Telegram sink settings.
type TelegramConfig struct {
	// BotToken authenticates the bot.
	BotToken string
	// ChatID is the destination chat.
	ChatID string
	// BaseURL overrides the API base URL (tests only).
	BaseURL string
	// Timeout is the per-attempt timeout.
	Timeout time.Duration
}

// sendMessageRequest is the sendMessage request body.
type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// sendMessageResponse is the sendMessage response body.
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// TelegramSink sends digests through the Telegram Bot API.
type TelegramSink struct {
	config TelegramConfig
	client *http.Client
}

var _ Sink = (*TelegramSink)(nil)

// NewTelegramSink creates a Telegram bot sink.
func NewTelegramSink(cfg TelegramConfig) *TelegramSink {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTelegramBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TelegramSink{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Send delivers the rendered digest via sendMessage and returns the
// Telegram message ID.
func (s *TelegramSink) Send(ctx context.Context, payload *domain.DigestPayload) (string, error) {
	text, err := renderDigest(payload)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    s.config.ChatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return "", fmt.Errorf("telegram: marshal message: %w", err)
	}

	endpoint := s.config.BaseURL + "/bot" + s.config.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram: send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("telegram: read response: %w", err)
	}

	var parsed sendMessageResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("telegram: decode response (status %d): %w", resp.StatusCode, err)
	}
	if !parsed.OK {
		return "", fmt.Errorf("telegram: API error (status %d): %s", resp.StatusCode, parsed.Description)
	}

	return strconv.FormatInt(parsed.Result.MessageID, 10), nil
}

// Channel names the sink.
func (s *TelegramSink) Channel() string {
	return "telegram"
}
