package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics for the pipeline, organized by
// subsystem: runs, papers, processing steps, sources, and delivery. All
// metrics are registered on the registry passed to NewMetrics.
type Metrics struct {
	// RunsTotal counts completed runs labeled by final run state.
	RunsTotal *prometheus.CounterVec

	// RunDuration observes end-to-end run duration in seconds.
	RunDuration prometheus.Histogram

	// PapersDiscovered counts papers returned by discovery.
	PapersDiscovered prometheus.Counter

	// PapersSkipped counts papers filtered out as already delivered.
	PapersSkipped prometheus.Counter

	// PaperOutcomes counts terminal paper outcomes labeled by kind.
	PaperOutcomes *prometheus.CounterVec

	// StepDuration observes per-step duration in seconds, labeled by step.
	StepDuration *prometheus.HistogramVec

	// StepRetries counts retried step attempts, labeled by step.
	StepRetries *prometheus.CounterVec

	// SourceRequests counts discovery requests labeled by source and result.
	SourceRequests *prometheus.CounterVec

	// DeliveryAttempts counts digest delivery attempts labeled by channel
	// and result.
	DeliveryAttempts *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on reg. The namespace
// prefixes every metric name. Passing a fresh registry keeps test runs
// isolated from each other.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total pipeline runs by final state",
		}, []string{"state"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end pipeline run duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		}),
		PapersDiscovered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_discovered_total",
			Help:      "Total papers returned by discovery",
		}),
		PapersSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_skipped_total",
			Help:      "Total papers skipped as delivered on a prior day",
		}),
		PaperOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paper_outcomes_total",
			Help:      "Terminal paper outcomes by kind",
		}, []string{"kind"}),
		StepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Processing step duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"step"}),
		StepRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_retries_total",
			Help:      "Retried step attempts by step",
		}, []string{"step"}),
		SourceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Discovery requests by source and result",
		}, []string{"source", "result"}),
		DeliveryAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_attempts_total",
			Help:      "Digest delivery attempts by channel and result",
		}, []string{"channel", "result"}),
	}
}
