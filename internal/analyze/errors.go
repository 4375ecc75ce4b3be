package analyze

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/paperpulse/paperpulse/internal/domain"
)

// APIError represents an error returned by an LLM provider API.
type APIError struct {
	// Provider is the name of the LLM provider (e.g., "openai", "anthropic").
	Provider string
	// StatusCode is the HTTP status code returned by the API. Zero means
	// no HTTP response was received.
	StatusCode int
	// Message is the error message from the API.
	Message string
	// Type is the error type classification from the API.
	Type string
	// Code is the provider-specific error code (if available).
	Code string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: API error (status %d, type %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsTransient reports whether a retry may succeed: rate limiting (429),
// server errors (5xx), and network errors (StatusCode 0).
func (e *APIError) IsTransient() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

// classify maps a provider error to the analysis failure taxonomy:
// 429 is rate limited, deadline expiry is a timeout, other transient
// API errors are unreachable, and everything else — provider rejections,
// unparseable output — is a model error.
func classify(paperID string, err error) *domain.AnalysisError {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewAnalysisError(paperID, domain.ReasonTimeout, err)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return domain.NewAnalysisError(paperID, domain.ReasonRateLimited, err)
		case apiErr.IsTransient():
			return domain.NewAnalysisError(paperID, domain.ReasonUnreachable, err)
		default:
			return domain.NewAnalysisError(paperID, domain.ReasonModelError, err)
		}
	}

	return domain.NewAnalysisError(paperID, domain.ReasonModelError, err)
}
