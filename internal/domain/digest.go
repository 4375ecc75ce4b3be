package domain

import "time"

// DigestEntry is one successful analysis in the delivered digest.
type DigestEntry struct {
	Paper    PaperRecord    `json:"paper"`
	Analysis AnalysisResult `json:"analysis"`
}

// DigestPayload is the aggregator's output: the ordered successes of a run
// plus a failure summary. It is built once per run and discarded after
// delivery; only the receipt outlives it.
type DigestPayload struct {
	// RunID identifies the pipeline execution that produced the digest.
	RunID string `json:"run_id"`
	// Day is the discovery day the digest covers.
	Day time.Time `json:"day"`
	// GeneratedAt is when aggregation happened.
	GeneratedAt time.Time `json:"generated_at"`
	// Discovered is the total number of papers the run tracked.
	Discovered int `json:"discovered"`
	// Entries holds the successes ordered by discovery order, ties broken
	// by paper ID. The ordering is stable across identical inputs.
	Entries []DigestEntry `json:"entries"`
	// Failures counts failed papers by reason. Raw error payloads are
	// deliberately absent; diagnostics belong in logs, not the digest.
	Failures map[FailureReason]int `json:"failures,omitempty"`
	// AllFailed is set when the run produced no successes but did track
	// papers. Such digests are still delivered so operators see the run.
	AllFailed bool `json:"all_failed"`
}

// FailureCount returns the total number of failed papers.
func (p *DigestPayload) FailureCount() int {
	n := 0
	for _, c := range p.Failures {
		n += c
	}
	return n
}

// DeliveryReceipt confirms one successful digest delivery.
type DeliveryReceipt struct {
	// Channel names the sink that accepted the digest.
	Channel string `json:"channel"`
	// MessageID is the sink-assigned identifier, when one exists.
	MessageID string `json:"message_id,omitempty"`
	// Attempts is how many delivery attempts were made, including the
	// successful one.
	Attempts int `json:"attempts"`
	// DeliveredAt is when the sink accepted the digest.
	DeliveredAt time.Time `json:"delivered_at"`
}
