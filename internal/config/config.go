// Package config provides configuration management for paper-pulse.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the paper-pulse pipeline.
type Config struct {
	// Pipeline contains orchestrator settings.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Ops contains the operational HTTP server settings (health, metrics).
	Ops OpsConfig `mapstructure:"ops"`
	// Sources contains paper discovery source settings.
	Sources SourcesConfig `mapstructure:"sources"`
	// Extraction contains PDF download and extraction service settings.
	Extraction ExtractionConfig `mapstructure:"extraction"`
	// LLM contains analysis provider settings.
	LLM LLMConfig `mapstructure:"llm"`
	// Delivery contains digest sink settings.
	Delivery DeliveryConfig `mapstructure:"delivery"`
	// Store contains the optional cross-day seen-paper store settings.
	Store StoreConfig `mapstructure:"store"`
	// Schedule contains the daily trigger settings used by serve.
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	// ConcurrencyLimit bounds simultaneous paper workers. Zero derives the
	// limit from available parallelism.
	ConcurrencyLimit int `mapstructure:"concurrency_limit" validate:"gte=0"`
	// StepRetries is the number of retries per processing step for
	// transient failures (2 retries = 3 attempts total).
	StepRetries int `mapstructure:"step_retries" validate:"gte=0"`
	// RunTimeout bounds one full pipeline execution. Papers still in
	// flight when it fires are recorded as timed out.
	RunTimeout time.Duration `mapstructure:"run_timeout" validate:"gt=0"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level" validate:"required"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format" validate:"oneof=json console"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output" validate:"oneof=stdout stderr"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// OpsConfig holds the operational HTTP server configuration.
type OpsConfig struct {
	// Enabled controls whether serve exposes the ops HTTP server.
	Enabled bool `mapstructure:"enabled"`
	// Address is the listen address, e.g. "0.0.0.0:9090".
	Address string `mapstructure:"address"`
	// MetricsPath is the Prometheus scrape path.
	MetricsPath string `mapstructure:"metrics_path"`
}

// SourcesConfig holds configuration for all discovery sources.
type SourcesConfig struct {
	// ArXiv contains arXiv API settings.
	ArXiv SourceConfig `mapstructure:"arxiv"`
	// HuggingFace contains Hugging Face daily papers settings.
	HuggingFace SourceConfig `mapstructure:"huggingface"`
	// Categories limits arXiv discovery to these categories (e.g. cs.AI).
	Categories []string `mapstructure:"categories"`
}

// SourceConfig holds configuration for a single discovery source.
type SourceConfig struct {
	// Enabled controls whether this source is queried.
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the source base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxResults caps papers fetched per day from this source.
	MaxResults int `mapstructure:"max_results"`
}

// ExtractionConfig holds PDF download and extraction service settings.
type ExtractionConfig struct {
	// ServiceURL is the structured-extraction HTTP service endpoint.
	ServiceURL string `mapstructure:"service_url" validate:"required,url"`
	// APIKey authenticates against the extraction service (env only).
	APIKey string `mapstructure:"-"`
	// Timeout is the per-call timeout covering download plus extraction.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// MaxPDFSize is the maximum accepted PDF size in bytes.
	MaxPDFSize int64 `mapstructure:"max_pdf_size" validate:"gt=0"`
}

// LLMConfig holds analysis provider settings.
type LLMConfig struct {
	// Provider is the LLM provider ("openai" or "anthropic").
	Provider string `mapstructure:"provider" validate:"oneof=openai anthropic"`
	// Timeout is the per-call timeout for analysis requests.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// Temperature is the sampling temperature.
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	// MaxContentChars truncates extracted text sent to the model.
	MaxContentChars int `mapstructure:"max_content_chars" validate:"gt=0"`
	// OpenAI contains OpenAI-specific settings.
	OpenAI ProviderConfig `mapstructure:"openai"`
	// Anthropic contains Anthropic-specific settings.
	Anthropic ProviderConfig `mapstructure:"anthropic"`
}

// ProviderConfig holds per-provider LLM settings.
type ProviderConfig struct {
	// APIKey is loaded exclusively from the environment (see loadSecrets).
	APIKey string `mapstructure:"-"`
	// Model is the model identifier.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
}

// DeliveryConfig holds digest sink settings.
type DeliveryConfig struct {
	// Channel selects the sink ("slack" or "telegram").
	Channel string `mapstructure:"channel" validate:"oneof=slack telegram"`
	// MaxAttempts bounds delivery attempts per run.
	MaxAttempts int `mapstructure:"max_attempts" validate:"gte=1"`
	// Timeout is the per-attempt delivery timeout.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// Slack contains Slack webhook settings.
	Slack SlackConfig `mapstructure:"slack"`
	// Telegram contains Telegram bot settings.
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// SlackConfig holds Slack webhook settings.
type SlackConfig struct {
	// WebhookURL is loaded exclusively from the environment (see loadSecrets).
	WebhookURL string `mapstructure:"-"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	// BotToken is loaded exclusively from the environment (see loadSecrets).
	BotToken string `mapstructure:"-"`
	// ChatID is the destination chat.
	ChatID string `mapstructure:"chat_id"`
}

// StoreConfig holds seen-paper store settings.
type StoreConfig struct {
	// Enabled turns on cross-day deduplication.
	Enabled bool `mapstructure:"enabled"`
	// Path is the directory holding the SQLite database file.
	Path string `mapstructure:"path"`
}

// ScheduleConfig holds the daily trigger settings.
type ScheduleConfig struct {
	// At is the local time of day to run, formatted "15:04".
	At string `mapstructure:"at"`
	// Timezone resolves At, e.g. "UTC" or "Europe/Berlin".
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the configured timezone, falling back to UTC.
func (s ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

// Load loads configuration from defaults, an optional config file, and
// PAPERPULSE_* environment variables. Secrets come only from environment
// variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PAPERPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paperpulse")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file is fine; defaults plus env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment
// variables. These fields use mapstructure:"-" so config files cannot
// set them.
func loadSecrets(cfg *Config) {
	cfg.LLM.OpenAI.APIKey = os.Getenv("PAPERPULSE_LLM_OPENAI_API_KEY")
	cfg.LLM.Anthropic.APIKey = os.Getenv("PAPERPULSE_LLM_ANTHROPIC_API_KEY")
	cfg.Extraction.APIKey = os.Getenv("PAPERPULSE_EXTRACTION_API_KEY")
	cfg.Delivery.Slack.WebhookURL = os.Getenv("PAPERPULSE_DELIVERY_SLACK_WEBHOOK_URL")
	cfg.Delivery.Telegram.BotToken = os.Getenv("PAPERPULSE_DELIVERY_TELEGRAM_BOT_TOKEN")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Pipeline defaults
	v.SetDefault("pipeline.concurrency_limit", 0) // derive from GOMAXPROCS
	v.SetDefault("pipeline.step_retries", 2)
	v.SetDefault("pipeline.run_timeout", "15m")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Ops server defaults
	v.SetDefault("ops.enabled", true)
	v.SetDefault("ops.address", "0.0.0.0:9090")
	v.SetDefault("ops.metrics_path", "/metrics")

	// Sources defaults - arXiv
	v.SetDefault("sources.arxiv.enabled", true)
	v.SetDefault("sources.arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("sources.arxiv.timeout", "30s")
	v.SetDefault("sources.arxiv.rate_limit", 3.0) // arXiv recommends max 3 req/sec
	v.SetDefault("sources.arxiv.max_results", 100)

	// Sources defaults - Hugging Face daily papers
	v.SetDefault("sources.huggingface.enabled", true)
	v.SetDefault("sources.huggingface.base_url", "https://huggingface.co")
	v.SetDefault("sources.huggingface.timeout", "30s")
	v.SetDefault("sources.huggingface.rate_limit", 5.0)
	v.SetDefault("sources.huggingface.max_results", 50)

	v.SetDefault("sources.categories", []string{"cs.AI", "cs.LG"})

	// Extraction defaults
	v.SetDefault("extraction.service_url", "http://localhost:5001/v1/extract")
	v.SetDefault("extraction.timeout", "120s")
	v.SetDefault("extraction.max_pdf_size", 50*1024*1024)

	// LLM defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_content_chars", 48000)
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("llm.anthropic.base_url", "https://api.anthropic.com")

	// Delivery defaults
	v.SetDefault("delivery.channel", "slack")
	v.SetDefault("delivery.max_attempts", 3)
	v.SetDefault("delivery.timeout", "10s")
	v.SetDefault("delivery.telegram.chat_id", "")

	// Store defaults
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.path", "data")

	// Schedule defaults
	v.SetDefault("schedule.at", "06:00")
	v.SetDefault("schedule.timezone", "UTC")
}

// Validate validates the configuration: struct tags first, then
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return err
	}

	if !c.Sources.ArXiv.Enabled && !c.Sources.HuggingFace.Enabled {
		return fmt.Errorf("at least one discovery source must be enabled")
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return fmt.Errorf("LLM provider %q requires PAPERPULSE_LLM_OPENAI_API_KEY to be set", c.LLM.Provider)
		}
	case "anthropic":
		if c.LLM.Anthropic.APIKey == "" {
			return fmt.Errorf("LLM provider %q requires PAPERPULSE_LLM_ANTHROPIC_API_KEY to be set", c.LLM.Provider)
		}
	}

	switch strings.ToLower(c.Delivery.Channel) {
	case "slack":
		if c.Delivery.Slack.WebhookURL == "" {
			return fmt.Errorf("delivery channel %q requires PAPERPULSE_DELIVERY_SLACK_WEBHOOK_URL to be set", c.Delivery.Channel)
		}
	case "telegram":
		if c.Delivery.Telegram.BotToken == "" || c.Delivery.Telegram.ChatID == "" {
			return fmt.Errorf("delivery channel %q requires PAPERPULSE_DELIVERY_TELEGRAM_BOT_TOKEN and delivery.telegram.chat_id", c.Delivery.Channel)
		}
	}

	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path is required when the seen-paper store is enabled")
	}

	if _, err := time.Parse("15:04", c.Schedule.At); err != nil {
		return fmt.Errorf("schedule.at must be formatted as HH:MM: %w", err)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("unknown schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}

	return nil
}
