package source

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/paperpulse/paperpulse/internal/domain"
	"github.com/paperpulse/paperpulse/internal/observability"
)

// sourceResult holds one source's discovery outcome.
type sourceResult struct {
	name   string
	papers []domain.PaperRecord
	err    error
}

// Registry manages paper sources and coordinates concurrent discovery.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]PaperSource
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewRegistry creates an empty source registry.
func NewRegistry(logger zerolog.Logger, metrics *observability.Metrics) *Registry {
	return &Registry{
		sources: make(map[string]PaperSource),
		logger:  logger.With().Str("component", "source_registry").Logger(),
		metrics: metrics,
	}
}

// Register adds a source, replacing any source with the same name.
func (r *Registry) Register(src PaperSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[src.SourceName()] = src
}

// EnabledSources returns the enabled sources sorted by name. The stable
// order keeps merged discovery output deterministic across runs.
func (r *Registry) EnabledSources() []PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]PaperSource, 0, len(r.sources))
	for _, src := range r.sources {
		if src.IsEnabled() {
			sources = append(sources, src)
		}
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].SourceName() < sources[j].SourceName()
	})
	return sources
}

// Discover queries all enabled sources concurrently and merges their
// papers into one list: sources in name order, each source's papers in
// the order it returned them, duplicates by paper ID dropped (first
// occurrence wins), and DiscoveryIndex assigned sequentially.
//
// A source failure is tolerated as long as another source succeeds. It
// returns a DiscoveryError when no source is registered, every source
// fails, or the merged list is empty.
func (r *Registry) Discover(ctx context.Context, day time.Time) ([]domain.PaperRecord, error) {
	sources := r.EnabledSources()
	if len(sources) == 0 {
		return nil, domain.NewDiscoveryError("registry", errors.New("no sources enabled"))
	}

	results := make([]sourceResult, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src PaperSource) {
			defer wg.Done()
			papers, err := src.ListPapers(ctx, day)
			results[i] = sourceResult{name: src.SourceName(), papers: papers, err: err}
		}(i, src)
	}
	wg.Wait()

	var (
		merged []domain.PaperRecord
		seen   = make(map[string]struct{})
		failed []string
		errs   []error
	)
	for _, res := range results {
		if res.err != nil {
			r.logger.Warn().
				Err(res.err).
				Str("source", res.name).
				Msg("source discovery failed")
			r.metrics.SourceRequests.WithLabelValues(res.name, "error").Inc()
			failed = append(failed, res.name)
			errs = append(errs, res.err)
			continue
		}
		r.metrics.SourceRequests.WithLabelValues(res.name, "ok").Inc()
		for _, p := range res.papers {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			p.DiscoveryIndex = len(merged)
			merged = append(merged, p)
		}
	}

	if len(failed) == len(sources) {
		return nil, domain.NewDiscoveryError(strings.Join(failed, ","), errors.Join(errs...))
	}
	if len(merged) == 0 {
		return nil, domain.NewDiscoveryError(strings.Join(sourceNames(sources), ","), domain.ErrNoPapers)
	}

	r.logger.Info().
		Int("papers", len(merged)).
		Int("sources", len(sources)-len(failed)).
		Str("day", day.Format("2006-01-02")).
		Msg("discovery complete")

	return merged, nil
}

func sourceNames(sources []PaperSource) []string {
	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.SourceName()
	}
	return names
}
