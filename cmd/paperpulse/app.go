package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/paperpulse/paperpulse/internal/analyze"
	"github.com/paperpulse/paperpulse/internal/config"
	"github.com/paperpulse/paperpulse/internal/delivery"
	"github.com/paperpulse/paperpulse/internal/extract"
	"github.com/paperpulse/paperpulse/internal/observability"
	"github.com/paperpulse/paperpulse/internal/orchestrator"
	"github.com/paperpulse/paperpulse/internal/source"
	"github.com/paperpulse/paperpulse/internal/source/arxiv"
	"github.com/paperpulse/paperpulse/internal/source/huggingface"
	"github.com/paperpulse/paperpulse/internal/store"
)

// app bundles the wired pipeline and the resources it owns.
type app struct {
	orchestrator *orchestrator.Orchestrator
	metrics      *observability.Metrics
	seenStore    *store.SeenStore
}

// buildApp wires discovery sources, the extraction service, the LLM
// analyzer, the delivery sink, and the optional seen store into an
// orchestrator.
func buildApp(cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*app, error) {
	metrics := observability.NewMetrics("paperpulse", reg)

	registry := source.NewRegistry(logger, metrics)
	registry.Register(arxiv.New(arxiv.Config{
		BaseURL:    cfg.Sources.ArXiv.BaseURL,
		Timeout:    cfg.Sources.ArXiv.Timeout,
		RateLimit:  cfg.Sources.ArXiv.RateLimit,
		MaxResults: cfg.Sources.ArXiv.MaxResults,
		Categories: cfg.Sources.Categories,
		Enabled:    cfg.Sources.ArXiv.Enabled,
	}))
	registry.Register(huggingface.New(huggingface.Config{
		BaseURL:    cfg.Sources.HuggingFace.BaseURL,
		Timeout:    cfg.Sources.HuggingFace.Timeout,
		RateLimit:  cfg.Sources.HuggingFace.RateLimit,
		MaxResults: cfg.Sources.HuggingFace.MaxResults,
		Enabled:    cfg.Sources.HuggingFace.Enabled,
	}))

	extractor := extract.NewService(extract.ServiceConfig{
		URL:        cfg.Extraction.ServiceURL,
		APIKey:     cfg.Extraction.APIKey,
		Timeout:    cfg.Extraction.Timeout,
		MaxPDFSize: cfg.Extraction.MaxPDFSize,
	}, logger)

	analyzer, err := analyze.NewAnalyzer(analyze.FactoryConfig{
		Provider:        cfg.LLM.Provider,
		Temperature:     cfg.LLM.Temperature,
		Timeout:         cfg.LLM.Timeout,
		MaxContentChars: cfg.LLM.MaxContentChars,
		OpenAI: analyze.OpenAIConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
		},
		Anthropic: analyze.AnthropicConfig{
			APIKey:  cfg.LLM.Anthropic.APIKey,
			Model:   cfg.LLM.Anthropic.Model,
			BaseURL: cfg.LLM.Anthropic.BaseURL,
		},
	})
	if err != nil {
		return nil, err
	}

	sink, err := delivery.NewSink(delivery.FactoryConfig{
		Channel:          cfg.Delivery.Channel,
		Timeout:          cfg.Delivery.Timeout,
		SlackWebhookURL:  cfg.Delivery.Slack.WebhookURL,
		TelegramBotToken: cfg.Delivery.Telegram.BotToken,
		TelegramChatID:   cfg.Delivery.Telegram.ChatID,
	})
	if err != nil {
		return nil, err
	}

	var seenStore *store.SeenStore
	var seen orchestrator.SeenFilter
	if cfg.Store.Enabled {
		seenStore, err = store.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open seen store: %w", err)
		}
		seen = seenStore
	}

	o := orchestrator.New(orchestrator.Config{
		ConcurrencyLimit:    cfg.Pipeline.ConcurrencyLimit,
		StepRetries:         cfg.Pipeline.StepRetries,
		RunTimeout:          cfg.Pipeline.RunTimeout,
		DeliveryMaxAttempts: cfg.Delivery.MaxAttempts,
	}, registry, extractor, analyzer, sink, seen, metrics, logger)

	return &app{orchestrator: o, metrics: metrics, seenStore: seenStore}, nil
}

// Close releases resources owned by the app.
func (a *app) Close() {
	if a.seenStore != nil {
		_ = a.seenStore.Close()
	}
}
