package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredSecrets provides the env-only secrets the default
// provider/channel selection needs to validate.
func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("PAPERPULSE_LLM_OPENAI_API_KEY", "sk-test")
	t.Setenv("PAPERPULSE_DELIVERY_SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/T000/B000/XXX")
}

func validConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{ConcurrencyLimit: 4, StepRetries: 2, RunTimeout: 15 * time.Minute},
		Logging:  LoggingConfig{Level: "info", Format: "json", Output: "stderr", TimeFormat: time.RFC3339},
		Ops:      OpsConfig{Enabled: true, Address: "127.0.0.1:9090", MetricsPath: "/metrics"},
		Sources: SourcesConfig{
			ArXiv:      SourceConfig{Enabled: true, BaseURL: "https://export.arxiv.org/api", Timeout: 30 * time.Second, RateLimit: 3, MaxResults: 100},
			Categories: []string{"cs.AI"},
		},
		Extraction: ExtractionConfig{ServiceURL: "http://localhost:5001/v1/extract", Timeout: 2 * time.Minute, MaxPDFSize: 50 << 20},
		LLM: LLMConfig{
			Provider:        "openai",
			Timeout:         time.Minute,
			Temperature:     0.3,
			MaxContentChars: 48000,
			OpenAI:          ProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: "https://api.openai.com/v1"},
		},
		Delivery: DeliveryConfig{
			Channel:     "slack",
			MaxAttempts: 3,
			Timeout:     10 * time.Second,
			Slack:       SlackConfig{WebhookURL: "https://hooks.slack.com/services/T000/B000/XXX"},
		},
		Store:    StoreConfig{Enabled: false, Path: "data"},
		Schedule: ScheduleConfig{At: "06:00", Timezone: "UTC"},
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply when nothing is set", func(t *testing.T) {
		setRequiredSecrets(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 0, cfg.Pipeline.ConcurrencyLimit)
		assert.Equal(t, 2, cfg.Pipeline.StepRetries)
		assert.Equal(t, 15*time.Minute, cfg.Pipeline.RunTimeout)
		assert.Equal(t, "openai", cfg.LLM.Provider)
		assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model)
		assert.True(t, cfg.Sources.ArXiv.Enabled)
		assert.True(t, cfg.Sources.HuggingFace.Enabled)
		assert.Equal(t, []string{"cs.AI", "cs.LG"}, cfg.Sources.Categories)
		assert.Equal(t, "slack", cfg.Delivery.Channel)
		assert.Equal(t, 3, cfg.Delivery.MaxAttempts)
		assert.False(t, cfg.Store.Enabled)
		assert.Equal(t, "06:00", cfg.Schedule.At)
	})

	t.Run("environment variables override defaults", func(t *testing.T) {
		setRequiredSecrets(t)
		t.Setenv("PAPERPULSE_PIPELINE_STEP_RETRIES", "5")
		t.Setenv("PAPERPULSE_PIPELINE_RUN_TIMEOUT", "1m")
		t.Setenv("PAPERPULSE_SOURCES_HUGGINGFACE_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Pipeline.StepRetries)
		assert.Equal(t, time.Minute, cfg.Pipeline.RunTimeout)
		assert.False(t, cfg.Sources.HuggingFace.Enabled)
	})

	t.Run("secrets come only from the environment", func(t *testing.T) {
		setRequiredSecrets(t)
		t.Setenv("PAPERPULSE_LLM_PROVIDER", "anthropic")
		t.Setenv("PAPERPULSE_LLM_ANTHROPIC_API_KEY", "sk-ant-test")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "sk-ant-test", cfg.LLM.Anthropic.APIKey)
	})

	t.Run("missing provider key fails validation", func(t *testing.T) {
		t.Setenv("PAPERPULSE_LLM_OPENAI_API_KEY", "")
		t.Setenv("PAPERPULSE_DELIVERY_SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/T000/B000/XXX")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PAPERPULSE_LLM_OPENAI_API_KEY")
	})

	t.Run("missing delivery credential fails validation", func(t *testing.T) {
		t.Setenv("PAPERPULSE_LLM_OPENAI_API_KEY", "sk-test")
		t.Setenv("PAPERPULSE_DELIVERY_SLACK_WEBHOOK_URL", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PAPERPULSE_DELIVERY_SLACK_WEBHOOK_URL")
	})
}

func TestValidate(t *testing.T) {
	t.Run("a fully specified config passes", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("unknown provider is rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.LLM.Provider = "llama-at-home"
		require.Error(t, cfg.Validate())
	})

	t.Run("all sources disabled is rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sources.ArXiv.Enabled = false
		cfg.Sources.HuggingFace.Enabled = false
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one discovery source")
	})

	t.Run("telegram requires a chat id", func(t *testing.T) {
		cfg := validConfig()
		cfg.Delivery.Channel = "telegram"
		cfg.Delivery.Telegram.BotToken = "token-123"
		cfg.Delivery.Telegram.ChatID = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("enabled store requires a path", func(t *testing.T) {
		cfg := validConfig()
		cfg.Store.Enabled = true
		cfg.Store.Path = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store.path")
	})

	t.Run("malformed schedule time is rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Schedule.At = "6 o'clock"
		require.Error(t, cfg.Validate())
	})

	t.Run("unknown timezone is rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Schedule.Timezone = "Mars/Olympus_Mons"
		require.Error(t, cfg.Validate())
	})
}

func TestScheduleLocation(t *testing.T) {
	assert.Equal(t, time.UTC, ScheduleConfig{Timezone: "nowhere"}.Location())

	berlin := ScheduleConfig{Timezone: "Europe/Berlin"}.Location()
	assert.Equal(t, "Europe/Berlin", berlin.String())
}
