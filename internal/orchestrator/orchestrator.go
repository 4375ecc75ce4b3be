package orchestrator

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/paperpulse/paperpulse/internal/analyze"
	"github.com/paperpulse/paperpulse/internal/delivery"
	"github.com/paperpulse/paperpulse/internal/digest"
	"github.com/paperpulse/paperpulse/internal/domain"
	"github.com/paperpulse/paperpulse/internal/extract"
	"github.com/paperpulse/paperpulse/internal/observability"
)

// Discoverer lists the papers to process for one day.
type Discoverer interface {
	Discover(ctx context.Context, day time.Time) ([]domain.PaperRecord, error)
}

// SeenFilter drops papers that already appeared in a delivered digest
// and records newly delivered ones. Optional; a nil filter disables
// cross-day deduplication.
type SeenFilter interface {
	FilterUnseen(ctx context.Context, papers []domain.PaperRecord) ([]domain.PaperRecord, error)
	MarkDelivered(ctx context.Context, runID string, papers []domain.PaperRecord, deliveredAt time.Time) error
}

// Config holds orchestrator settings.
type Config struct {
	// ConcurrencyLimit bounds simultaneous paper workers. Zero derives
	// the limit from GOMAXPROCS.
	ConcurrencyLimit int
	// StepRetries is the per-step retry budget for transient failures.
	StepRetries int
	// RunTimeout bounds one run end to end, delivery excluded.
	RunTimeout time.Duration
	// DeliveryMaxAttempts bounds digest delivery attempts.
	DeliveryMaxAttempts int
	// DeliveryRetryDelay is the wait between delivery attempts.
	DeliveryRetryDelay time.Duration
}

// applyDefaults fills unset configuration fields.
func (c *Config) applyDefaults() {
	if c.ConcurrencyLimit <= 0 {
		c.ConcurrencyLimit = runtime.GOMAXPROCS(0)
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 15 * time.Minute
	}
	if c.DeliveryMaxAttempts <= 0 {
		c.DeliveryMaxAttempts = 3
	}
	if c.DeliveryRetryDelay <= 0 {
		c.DeliveryRetryDelay = 2 * time.Second
	}
}

// RunReport summarizes one finished run.
type RunReport struct {
	// RunID identifies the run.
	RunID string
	// Day is the discovery day the run covered.
	Day time.Time
	// Status is the terminal run status.
	Status domain.RunStatus
	// Discovered is how many papers discovery returned.
	Discovered int
	// Skipped is how many papers the seen filter dropped.
	Skipped int
	// Succeeded and Failed count terminal paper outcomes.
	Succeeded int
	Failed    int
	// TimedOut counts papers forced out by the run deadline.
	TimedOut int
	// Receipt is set when the digest was delivered.
	Receipt *domain.DeliveryReceipt
	// Duration is the end-to-end run duration.
	Duration time.Duration
}

// Orchestrator runs the daily digest pipeline.
type Orchestrator struct {
	config     Config
	discoverer Discoverer
	extractor  extract.Extractor
	analyzer   analyze.Analyzer
	sink       delivery.Sink
	seen       SeenFilter
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// New creates an orchestrator. seen may be nil to disable cross-day
// deduplication.
func New(cfg Config, discoverer Discoverer, extractor extract.Extractor, analyzer analyze.Analyzer, sink delivery.Sink, seen SeenFilter, metrics *observability.Metrics, logger zerolog.Logger) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		config:     cfg,
		discoverer: discoverer,
		extractor:  extractor,
		analyzer:   analyzer,
		sink:       sink,
		seen:       seen,
		metrics:    metrics,
		logger:     logger,
	}
}

// Run executes one full pipeline pass for the given day.
//
// Discovery failure aborts the run before any worker starts. After
// discovery, per-paper failures never abort: each paper ends in exactly
// one outcome and the digest ships regardless of how many failed. The
// run timeout covers discovery and processing; papers still in flight
// when it fires are recorded as timed out and the run proceeds to
// aggregation. Delivery always gets its bounded attempts, even after a
// timeout; only exhausted delivery aborts a run that reached
// aggregation.
//
// The returned error is non-nil exactly when the report status is
// Aborted.
func (o *Orchestrator) Run(ctx context.Context, day time.Time) (*RunReport, error) {
	runID := uuid.NewString()
	logger := observability.WithRunContext(o.logger, runID, day)
	start := time.Now()

	report := &RunReport{RunID: runID, Day: day, Status: domain.RunDiscovering}
	defer func() {
		report.Duration = time.Since(start)
		o.metrics.RunsTotal.WithLabelValues(string(report.Status)).Inc()
		o.metrics.RunDuration.Observe(report.Duration.Seconds())
	}()

	runCtx, cancel := context.WithTimeout(ctx, o.config.RunTimeout)
	defer cancel()

	logger.Info().Msg("run started")

	papers, err := o.discoverer.Discover(runCtx, day)
	if err != nil {
		report.Status = domain.RunAborted
		logger.Error().Err(err).Msg("discovery failed, run aborted")
		return report, err
	}
	report.Discovered = len(papers)
	o.metrics.PapersDiscovered.Add(float64(len(papers)))

	papers, err = o.filterSeen(runCtx, logger, report, papers)
	if err != nil {
		report.Status = domain.RunAborted
		return report, err
	}
	if len(papers) == 0 {
		// Every discovered paper already shipped in an earlier digest.
		// Nothing to process or deliver; that is a clean finish.
		report.Status = domain.RunDone
		logger.Info().Msg("all papers previously delivered, nothing to do")
		return report, nil
	}

	state := NewRunState(runID, day, papers)
	o.process(runCtx, logger, state, papers)
	if forced := state.ForceTimeouts(); forced > 0 {
		logger.Warn().Int("forced", forced).Msg("run deadline overtook papers still in flight")
	}
	report.Succeeded, report.Failed, report.TimedOut = state.Counts()

	state.SetStatus(domain.RunAggregating)
	payload := digest.Aggregate(runID, day, state.Outcomes(), time.Now().UTC())
	logger.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("timed_out", report.TimedOut).
		Msg("aggregation complete")

	state.SetStatus(domain.RunDelivering)
	receipt, err := o.deliver(ctx, logger, payload)
	if err != nil {
		report.Status = domain.RunAborted
		state.SetStatus(domain.RunAborted)
		logger.Error().Err(err).Msg("delivery exhausted, run aborted")
		return report, err
	}
	report.Receipt = receipt

	o.markSeen(ctx, logger, runID, payload, receipt.DeliveredAt)

	if report.Failed > 0 {
		report.Status = domain.RunDegradedDone
	} else {
		report.Status = domain.RunDone
	}
	state.SetStatus(report.Status)
	logger.Info().
		Str("status", string(report.Status)).
		Dur("duration", time.Since(start)).
		Msg("run finished")
	return report, nil
}

// filterSeen applies the optional cross-day deduplication filter.
func (o *Orchestrator) filterSeen(ctx context.Context, logger zerolog.Logger, report *RunReport, papers []domain.PaperRecord) ([]domain.PaperRecord, error) {
	if o.seen == nil {
		return papers, nil
	}

	unseen, err := o.seen.FilterUnseen(ctx, papers)
	if err != nil {
		logger.Error().Err(err).Msg("seen filter failed")
		return nil, domain.NewDiscoveryError("seen-store", err)
	}

	report.Skipped = len(papers) - len(unseen)
	if report.Skipped > 0 {
		o.metrics.PapersSkipped.Add(float64(report.Skipped))
		logger.Info().Int("skipped", report.Skipped).Msg("skipped previously delivered papers")
	}
	return unseen, nil
}

// process fans papers out to the bounded worker pool and records every
// outcome. Workers never error; a full errgroup here only bounds
// concurrency and waits.
func (o *Orchestrator) process(ctx context.Context, logger zerolog.Logger, state *RunState, papers []domain.PaperRecord) {
	state.SetStatus(domain.RunProcessing)
	worker := NewPaperWorker(o.extractor, o.analyzer, o.config.StepRetries, state.SetPaperStatus, o.metrics, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.ConcurrencyLimit)

	for _, paper := range papers {
		g.Go(func() error {
			outcome := worker.Process(ctx, paper)
			if err := state.Complete(outcome); err != nil {
				logger.Warn().Err(err).Str("paper_id", paper.ID).Msg("dropping duplicate outcome")
			}
			return nil
		})
	}

	_ = g.Wait()
}

// deliver hands the digest to the sink with a bounded attempt budget.
// It runs detached from the run deadline: a timed-out run still gets
// its delivery attempts.
func (o *Orchestrator) deliver(ctx context.Context, logger zerolog.Logger, payload *domain.DigestPayload) (*domain.DeliveryReceipt, error) {
	deliverCtx := context.WithoutCancel(ctx)

	var lastErr error
	for attempt := 1; attempt <= o.config.DeliveryMaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(o.config.DeliveryRetryDelay):
			case <-deliverCtx.Done():
				return nil, domain.NewDeliveryError(o.sink.Channel(), attempt-1, deliverCtx.Err())
			}
		}

		messageID, err := o.sink.Send(deliverCtx, payload)
		if err == nil {
			o.metrics.DeliveryAttempts.WithLabelValues(o.sink.Channel(), "ok").Inc()
			logger.Info().
				Str("channel", o.sink.Channel()).
				Int("attempt", attempt).
				Msg("digest delivered")
			return &domain.DeliveryReceipt{
				Channel:     o.sink.Channel(),
				MessageID:   messageID,
				Attempts:    attempt,
				DeliveredAt: time.Now().UTC(),
			}, nil
		}

		lastErr = err
		o.metrics.DeliveryAttempts.WithLabelValues(o.sink.Channel(), "error").Inc()
		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", o.config.DeliveryMaxAttempts).
			Msg("delivery attempt failed")
	}

	return nil, domain.NewDeliveryError(o.sink.Channel(), o.config.DeliveryMaxAttempts, lastErr)
}

// markSeen records the papers whose analyses shipped in the digest.
// Failed papers stay unseen so a later run can retry them. Failures
// here are logged, not fatal: the digest already shipped.
func (o *Orchestrator) markSeen(ctx context.Context, logger zerolog.Logger, runID string, payload *domain.DigestPayload, deliveredAt time.Time) {
	if o.seen == nil || len(payload.Entries) == 0 {
		return
	}
	papers := make([]domain.PaperRecord, len(payload.Entries))
	for i, e := range payload.Entries {
		papers[i] = e.Paper
	}
	if err := o.seen.MarkDelivered(context.WithoutCancel(ctx), runID, papers, deliveredAt); err != nil {
		logger.Error().Err(err).Msg("failed to record delivered papers")
	}
}
