package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/paperpulse/paperpulse/internal/analyze"
	"github.com/paperpulse/paperpulse/internal/domain"
	"github.com/paperpulse/paperpulse/internal/extract"
	"github.com/paperpulse/paperpulse/internal/observability"
)

// Step names used in logs and metrics labels.
const (
	stepExtract = "extract"
	stepAnalyze = "analyze"
)

// StatusFunc records a paper's transition into a processing step.
type StatusFunc func(paperID string, status domain.PaperStatus)

// PaperWorker processes one paper end to end: extraction, then
// analysis. Each step retries transient failures within the policy
// budget; the first non-transient failure ends the paper immediately.
// A worker never returns an error — every path produces an outcome, so
// one bad paper cannot take down the run.
type PaperWorker struct {
	extractor extract.Extractor
	analyzer  analyze.Analyzer
	policy    retryPolicy
	track     StatusFunc
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// NewPaperWorker creates a worker with the given step retry budget.
// track may be nil; the orchestrator passes RunState.SetPaperStatus so
// per-paper progress is observable while workers are in flight.
func NewPaperWorker(extractor extract.Extractor, analyzer analyze.Analyzer, stepRetries int, track StatusFunc, metrics *observability.Metrics, logger zerolog.Logger) *PaperWorker {
	return &PaperWorker{
		extractor: extractor,
		analyzer:  analyzer,
		policy:    defaultRetryPolicy(stepRetries),
		track:     track,
		metrics:   metrics,
		logger:    logger,
	}
}

// setStatus reports a step transition when tracking is wired.
func (w *PaperWorker) setStatus(paperID string, status domain.PaperStatus) {
	if w.track != nil {
		w.track(paperID, status)
	}
}

// Process runs both steps for one paper and returns its terminal
// outcome. When the run context expires mid-step the paper is recorded
// as timed out.
func (w *PaperWorker) Process(ctx context.Context, paper domain.PaperRecord) domain.PaperOutcome {
	logger := observability.WithPaperContext(w.logger, paper.ID, paper.Source)

	w.setStatus(paper.ID, domain.PaperExtracting)
	content, err := w.runExtract(ctx, logger, paper)
	if err != nil {
		return w.failure(ctx, logger, paper, domain.OutcomeExtractionFailed, err)
	}

	w.setStatus(paper.ID, domain.PaperAnalyzing)
	analysis, err := w.runAnalyze(ctx, logger, paper, content)
	if err != nil {
		return w.failure(ctx, logger, paper, domain.OutcomeAnalysisFailed, err)
	}

	logger.Info().Msg("paper processed")
	w.metrics.PaperOutcomes.WithLabelValues(string(domain.OutcomeSucceeded)).Inc()
	return domain.SuccessOutcome(paper, content, analysis)
}

// runExtract runs the extraction step with retries.
func (w *PaperWorker) runExtract(ctx context.Context, logger zerolog.Logger, paper domain.PaperRecord) (*domain.ExtractedContent, error) {
	var content *domain.ExtractedContent

	start := time.Now()
	err := w.policy.execute(ctx, func() error {
		var stepErr error
		content, stepErr = w.extractor.Extract(ctx, paper)
		return stepErr
	}, w.notifyRetry(logger, stepExtract))
	w.metrics.StepDuration.WithLabelValues(stepExtract).Observe(time.Since(start).Seconds())

	return content, err
}

// runAnalyze runs the analysis step with retries.
func (w *PaperWorker) runAnalyze(ctx context.Context, logger zerolog.Logger, paper domain.PaperRecord, content *domain.ExtractedContent) (*domain.AnalysisResult, error) {
	var analysis *domain.AnalysisResult

	start := time.Now()
	err := w.policy.execute(ctx, func() error {
		var stepErr error
		analysis, stepErr = w.analyzer.Analyze(ctx, paper, content)
		return stepErr
	}, w.notifyRetry(logger, stepAnalyze))
	w.metrics.StepDuration.WithLabelValues(stepAnalyze).Observe(time.Since(start).Seconds())

	return analysis, err
}

// notifyRetry logs and counts a retried attempt.
func (w *PaperWorker) notifyRetry(logger zerolog.Logger, step string) func(err error, next time.Duration) {
	return func(err error, next time.Duration) {
		w.metrics.StepRetries.WithLabelValues(step).Inc()
		logger.Warn().
			Err(err).
			Str("step", step).
			Dur("retry_in", next).
			Msg("transient step failure, retrying")
	}
}

// failure converts a terminal step error into the paper's outcome. Run
// deadline expiry wins over whatever error the step surfaced.
func (w *PaperWorker) failure(ctx context.Context, logger zerolog.Logger, paper domain.PaperRecord, kind domain.OutcomeKind, err error) domain.PaperOutcome {
	if ctx.Err() != nil {
		logger.Warn().Err(err).Msg("paper overtaken by run deadline")
		w.metrics.PaperOutcomes.WithLabelValues(string(domain.OutcomeTimedOut)).Inc()
		return domain.TimeoutOutcome(paper)
	}

	reason := domain.ReasonOf(err)
	logger.Error().
		Err(err).
		Str("kind", string(kind)).
		Str("reason", string(reason)).
		Msg("paper failed")
	w.metrics.PaperOutcomes.WithLabelValues(string(kind)).Inc()
	return domain.FailureOutcome(paper, kind, reason)
}
