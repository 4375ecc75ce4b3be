// Package delivery sends the rendered digest to a chat sink. Sinks make
// exactly one attempt per Send call; the orchestrator owns the bounded
// attempt budget and builds the delivery receipt.
package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/paperpulse/paperpulse/internal/digest"
	"github.com/paperpulse/paperpulse/internal/domain"
)

// Sink delivers one digest to a destination channel.
type Sink interface {
	// Send delivers the digest once. It returns the sink-assigned
	// message ID when the destination provides one.
	Send(ctx context.Context, payload *domain.DigestPayload) (messageID string, err error)

	// Channel names the sink for receipts, logs, and metrics.
	Channel() string
}

// FactoryConfig holds the parameters needed to create a Sink. Defined
// here to keep the package free of the config package.
type FactoryConfig struct {
	// Channel selects the sink ("slack" or "telegram").
	Channel string
	// Timeout is the per-attempt delivery timeout.
	Timeout time.Duration
	// SlackWebhookURL is the Slack incoming-webhook URL.
	SlackWebhookURL string
	// TelegramBotToken is the Telegram bot token.
	TelegramBotToken string
	// TelegramChatID is the destination Telegram chat.
	TelegramChatID string
	// TelegramBaseURL overrides the Telegram API base URL (tests only).
	TelegramBaseURL string
}

// NewSink creates a Sink based on the configuration.
func NewSink(cfg FactoryConfig) (Sink, error) {
	switch cfg.Channel {
	case "slack":
		return NewSlackSink(SlackConfig{
			WebhookURL: cfg.SlackWebhookURL,
			Timeout:    cfg.Timeout,
		}), nil
	case "telegram":
		return NewTelegramSink(TelegramConfig{
			BotToken: cfg.TelegramBotToken,
			ChatID:   cfg.TelegramChatID,
			BaseURL:  cfg.TelegramBaseURL,
			Timeout:  cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported delivery channel: %q", cfg.Channel)
	}
}

// renderDigest produces the Markdown body shared by all sinks.
func renderDigest(payload *domain.DigestPayload) (string, error) {
	var sb strings.Builder
	if _, err := digest.NewMarkdownRenderer(&sb).Render(payload); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return sb.String(), nil
}
