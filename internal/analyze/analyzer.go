// Package analyze produces structured research analyses of extracted
// papers through an LLM provider.
//
// Providers make exactly one API call per Analyze invocation; retry
// policy lives with the caller, which knows the per-step retry budget.
// Failures are returned as *domain.AnalysisError so the caller can
// branch on the failure reason.
package analyze

import (
	"context"

	"github.com/paperpulse/paperpulse/internal/domain"
)

// Analyzer produces a research analysis from extracted paper content.
type Analyzer interface {
	// Analyze summarizes one paper. The returned error, when non-nil,
	// is a *domain.AnalysisError carrying the failure reason.
	Analyze(ctx context.Context, paper domain.PaperRecord, content *domain.ExtractedContent) (*domain.AnalysisResult, error)

	// Provider returns the provider name ("openai", "anthropic").
	Provider() string

	// Model returns the model identifier in use.
	Model() string
}
