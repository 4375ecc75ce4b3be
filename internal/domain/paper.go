// Package domain defines the core types shared across the paper-pulse
// pipeline: discovered papers, per-paper processing outcomes, the digest
// payload, and the error taxonomy.
package domain

import (
	"strings"
	"time"
)

// Author represents a paper author with an optional affiliation.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
}

// PaperRecord is a single discovered paper. Records are immutable once
// discovered; the ID is the identity key and is unique within a run.
type PaperRecord struct {
	// ID is the source-qualified identifier, e.g. "arxiv:2301.12345".
	ID string `json:"id"`
	// Title is the paper title with surrounding whitespace trimmed.
	Title string `json:"title"`
	// Authors lists the paper authors in publication order.
	Authors []Author `json:"authors,omitempty"`
	// Abstract is the paper abstract, if the source provides one.
	Abstract string `json:"abstract,omitempty"`
	// URL is the landing page for the paper.
	URL string `json:"url"`
	// PDFURL is the direct PDF link, empty when the source has none.
	PDFURL string `json:"pdf_url,omitempty"`
	// Source names the discovery source, e.g. "arxiv" or "huggingface".
	Source string `json:"source"`
	// PublishedAt is the publication date reported by the source.
	PublishedAt *time.Time `json:"published_at,omitempty"`
	// Upvotes is community interest reported by the source (0 when unknown).
	Upvotes int `json:"upvotes,omitempty"`
	// DiscoveryIndex is the position of this paper in discovery order.
	// The aggregator uses it to keep digest ordering deterministic.
	DiscoveryIndex int `json:"discovery_index"`
}

// AuthorList returns a human-readable author string: a single name, two
// names joined with "and", or the first author followed by "et al.".
func (p PaperRecord) AuthorList() string {
	switch len(p.Authors) {
	case 0:
		return ""
	case 1:
		return p.Authors[0].Name
	case 2:
		return p.Authors[0].Name + " and " + p.Authors[1].Name
	default:
		return p.Authors[0].Name + " et al."
	}
}

// Figure is a figure extracted from a paper.
type Figure struct {
	Caption string `json:"caption"`
}

// Table is a table extracted from a paper.
type Table struct {
	Caption string `json:"caption"`
}

// ExtractedContent is the structured content produced by the extraction
// collaborator for one paper.
type ExtractedContent struct {
	// PaperID ties the content back to the discovered paper.
	PaperID string `json:"paper_id"`
	// Text is the extracted body text (markdown or plain text).
	Text string `json:"text"`
	// Figures and Tables carry captions for non-text elements.
	Figures []Figure `json:"figures,omitempty"`
	Tables  []Table  `json:"tables,omitempty"`
	// PageCount is the number of pages in the source document.
	PageCount int `json:"page_count,omitempty"`
}

// Empty reports whether the extraction produced no usable text.
func (c *ExtractedContent) Empty() bool {
	return c == nil || strings.TrimSpace(c.Text) == ""
}

// AnalysisResult is the structured summary produced by the analysis
// collaborator for one paper.
type AnalysisResult struct {
	PaperID string `json:"paper_id"`
	// TLDR is a one-paragraph executive summary.
	TLDR string `json:"tldr"`
	// KeyContributions lists the paper's main contributions.
	KeyContributions []string `json:"key_contributions,omitempty"`
	// TechnicalInsights lists notable methodology or implementation details.
	TechnicalInsights []string `json:"technical_insights,omitempty"`
	// Topics are short topic labels assigned by the model.
	Topics []string `json:"topics,omitempty"`
	// Model identifies the model that produced the analysis.
	Model string `json:"model,omitempty"`
}

// PaperStatus enumerates the per-paper states tracked by the orchestrator.
type PaperStatus string

const (
	PaperPending    PaperStatus = "pending"
	PaperExtracting PaperStatus = "extracting"
	PaperAnalyzing  PaperStatus = "analyzing"
	PaperSucceeded  PaperStatus = "succeeded"
	PaperFailed     PaperStatus = "failed"
)

// Terminal reports whether the status is final. Terminal states accept no
// further transitions.
func (s PaperStatus) Terminal() bool {
	return s == PaperSucceeded || s == PaperFailed
}

// RunStatus enumerates the run-level states of one pipeline execution.
type RunStatus string

const (
	RunDiscovering RunStatus = "discovering"
	RunProcessing  RunStatus = "processing"
	RunAggregating RunStatus = "aggregating"
	RunDelivering  RunStatus = "delivering"
	// RunDone means every paper succeeded and the digest was delivered.
	RunDone RunStatus = "done"
	// RunDegradedDone means the digest was delivered but some papers failed.
	RunDegradedDone RunStatus = "degraded_done"
	// RunAborted means no digest was delivered (discovery failure or
	// delivery retries exhausted).
	RunAborted RunStatus = "aborted"
)

// Terminal reports whether the run status is final.
func (s RunStatus) Terminal() bool {
	return s == RunDone || s == RunDegradedDone || s == RunAborted
}
