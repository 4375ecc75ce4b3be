package analyze

import (
	"fmt"
	"time"
)

// FactoryConfig holds the parameters needed to create an Analyzer.
// Defined here to keep the package free of the config package.
type FactoryConfig struct {
	// Provider is the LLM provider name ("openai" or "anthropic").
	Provider string
	// Temperature is the sampling temperature.
	Temperature float64
	// Timeout is the per-call timeout for analysis requests.
	Timeout time.Duration
	// MaxContentChars truncates extracted text sent to the model.
	MaxContentChars int
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig
	// Anthropic contains Anthropic-specific settings.
	Anthropic AnthropicConfig
}

// NewAnalyzer creates an Analyzer based on the configuration. Supports
// "openai" and "anthropic"; any other value is an error.
func NewAnalyzer(cfg FactoryConfig) (Analyzer, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI, cfg.Temperature, cfg.Timeout, cfg.MaxContentChars), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic, cfg.Temperature, cfg.Timeout, cfg.MaxContentChars), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
