// Package source provides clients for discovering daily research papers.
//
// Each upstream site (arXiv, Hugging Face daily papers) implements the
// PaperSource interface. The Registry fans discovery out across all
// enabled sources concurrently and merges the results into one
// deduplicated, deterministically ordered list for the pipeline.
//
// Example usage:
//
//	registry := source.NewRegistry(logger, metrics)
//	registry.Register(arxiv.New(cfg))
//	papers, err := registry.Discover(ctx, day)
package source

import (
	"context"
	"time"

	"github.com/paperpulse/paperpulse/internal/domain"
)

// PaperSource is implemented by every paper discovery client.
type PaperSource interface {
	// ListPapers returns the papers the source published on the given
	// day. An empty slice with a nil error means the source genuinely
	// had nothing that day. Implementations must respect context
	// cancellation and apply their own rate limiting.
	ListPapers(ctx context.Context, day time.Time) ([]domain.PaperRecord, error)

	// SourceName returns the stable identifier for this source, used
	// in paper records, logs, and metrics labels.
	SourceName() string

	// IsEnabled reports whether the source should be queried. A source
	// may be disabled by configuration.
	IsEnabled() bool
}
