package domain

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline error taxonomy. Typed errors below
// unwrap to these so callers can branch with errors.Is.
var (
	// ErrNoPapers indicates the source returned an empty paper list.
	ErrNoPapers = errors.New("no papers discovered")

	// ErrRateLimited indicates a collaborator throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates a call or the run exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrUnreachable indicates a network-level failure reaching a collaborator.
	ErrUnreachable = errors.New("unreachable")

	// ErrMalformed indicates unparseable or invalid content.
	ErrMalformed = errors.New("malformed content")

	// ErrModel indicates a non-retryable inference failure.
	ErrModel = errors.New("model error")
)

// DiscoveryError is fatal for a run: the paper source was unreachable or
// returned zero papers. No digest is attempted.
type DiscoveryError struct {
	Source string
	Err    error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed (%s): %v", e.Source, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DiscoveryError) Unwrap() error { return e.Err }

// NewDiscoveryError wraps err as a run-fatal discovery failure.
func NewDiscoveryError(source string, err error) *DiscoveryError {
	return &DiscoveryError{Source: source, Err: err}
}

// ExtractionError is a per-paper failure of the extraction step.
type ExtractionError struct {
	PaperID string
	Reason  FailureReason
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s (%s): %v", e.PaperID, e.Reason, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error { return e.Err }

// Transient reports whether the step may be retried.
func (e *ExtractionError) Transient() bool { return e.Reason.Transient() }

// NewExtractionError wraps err as a per-paper extraction failure.
func NewExtractionError(paperID string, reason FailureReason, err error) *ExtractionError {
	return &ExtractionError{PaperID: paperID, Reason: reason, Err: err}
}

// AnalysisError is a per-paper failure of the analysis step.
type AnalysisError struct {
	PaperID string
	Reason  FailureReason
	Err     error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed for %s (%s): %v", e.PaperID, e.Reason, e.Err)
}

// Unwrap returns the underlying cause.
func (e *AnalysisError) Unwrap() error { return e.Err }

// Transient reports whether the step may be retried.
func (e *AnalysisError) Transient() bool { return e.Reason.Transient() }

// NewAnalysisError wraps err as a per-paper analysis failure.
func NewAnalysisError(paperID string, reason FailureReason, err error) *AnalysisError {
	return &AnalysisError{PaperID: paperID, Reason: reason, Err: err}
}

// DeliveryError is run-terminal: the digest could not be handed to the
// sink within the bounded attempt budget.
type DeliveryError struct {
	Channel  string
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed after %d attempts: %v", e.Channel, e.Attempts, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DeliveryError) Unwrap() error { return e.Err }

// NewDeliveryError wraps err as an exhausted delivery failure.
func NewDeliveryError(channel string, attempts int, err error) *DeliveryError {
	return &DeliveryError{Channel: channel, Attempts: attempts, Err: err}
}

// ReasonOf maps an error to its FailureReason. Typed step errors carry
// their reason; everything else is classified via the sentinels, with
// unknown errors treated as non-retryable malformed input (fail-fast bias
// for content problems, matching the retry policy).
func ReasonOf(err error) FailureReason {
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return extErr.Reason
	}
	var anaErr *AnalysisError
	if errors.As(err, &anaErr) {
		return anaErr.Reason
	}
	switch {
	case errors.Is(err, ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, ErrTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ReasonTimeout
	case errors.Is(err, ErrUnreachable):
		return ReasonUnreachable
	case errors.Is(err, ErrModel):
		return ReasonModelError
	default:
		return ReasonMalformed
	}
}

// IsTransient reports whether err represents a failure that may resolve
// on retry.
func IsTransient(err error) bool {
	return ReasonOf(err).Transient()
}
