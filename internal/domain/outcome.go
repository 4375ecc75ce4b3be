package domain

import "time"

// OutcomeKind tags the terminal outcome of processing one paper.
type OutcomeKind string

const (
	// OutcomeSucceeded means both extraction and analysis completed.
	OutcomeSucceeded OutcomeKind = "succeeded"
	// OutcomeExtractionFailed means the extraction step failed terminally.
	OutcomeExtractionFailed OutcomeKind = "extraction_failed"
	// OutcomeAnalysisFailed means the analysis step failed terminally.
	OutcomeAnalysisFailed OutcomeKind = "analysis_failed"
	// OutcomeTimedOut means the run-level timeout fired before the paper
	// reached a terminal state.
	OutcomeTimedOut OutcomeKind = "timed_out"
)

// FailureReason is the fine-grained cause attached to failed outcomes.
type FailureReason string

const (
	// ReasonUnreachable covers network-level failures reaching a collaborator.
	ReasonUnreachable FailureReason = "unreachable"
	// ReasonMalformed covers unparseable PDFs and invalid content.
	ReasonMalformed FailureReason = "malformed"
	// ReasonTimeout covers per-call and run-level deadline expiry.
	ReasonTimeout FailureReason = "timeout"
	// ReasonModelError covers non-retryable inference failures.
	ReasonModelError FailureReason = "model_error"
	// ReasonRateLimited covers 429-style throttling by a collaborator.
	ReasonRateLimited FailureReason = "rate_limited"
)

// Transient reports whether a step failing with this reason may be retried.
// Malformed content and model refusals do not resolve on retry.
func (r FailureReason) Transient() bool {
	switch r {
	case ReasonTimeout, ReasonRateLimited, ReasonUnreachable:
		return true
	default:
		return false
	}
}

// PaperOutcome is the write-once terminal result for one paper. Exactly one
// outcome exists per discovered paper by the time the run aggregates.
type PaperOutcome struct {
	// Paper is the record this outcome belongs to.
	Paper PaperRecord
	// Kind tags the variant; Reason is set for the failure kinds.
	Kind   OutcomeKind
	Reason FailureReason
	// Content and Analysis are populated only for OutcomeSucceeded.
	Content  *ExtractedContent
	Analysis *AnalysisResult
	// CompletedAt is when the paper reached its terminal state.
	CompletedAt time.Time
}

// Succeeded reports whether the paper produced a usable analysis.
func (o PaperOutcome) Succeeded() bool {
	return o.Kind == OutcomeSucceeded
}

// SuccessOutcome builds a succeeded outcome for a paper.
func SuccessOutcome(paper PaperRecord, content *ExtractedContent, analysis *AnalysisResult) PaperOutcome {
	return PaperOutcome{
		Paper:       paper,
		Kind:        OutcomeSucceeded,
		Content:     content,
		Analysis:    analysis,
		CompletedAt: time.Now().UTC(),
	}
}

// FailureOutcome builds a failed outcome of the given kind and reason.
func FailureOutcome(paper PaperRecord, kind OutcomeKind, reason FailureReason) PaperOutcome {
	return PaperOutcome{
		Paper:       paper,
		Kind:        kind,
		Reason:      reason,
		CompletedAt: time.Now().UTC(),
	}
}

// TimeoutOutcome builds the forced outcome for papers overtaken by the
// run-level timeout.
func TimeoutOutcome(paper PaperRecord) PaperOutcome {
	return FailureOutcome(paper, OutcomeTimedOut, ReasonTimeout)
}
