package extract

import (
	"context"

	"github.com/paperpulse/paperpulse/internal/domain"
)

// Extractor produces structured content from a paper's PDF.
type Extractor interface {
	// Extract downloads the paper's PDF and returns its structured
	// content. Failures are returned as *domain.ExtractionError carrying
	// the failure reason, so the worker can decide whether to retry.
	Extract(ctx context.Context, paper domain.PaperRecord) (*domain.ExtractedContent, error)
}
