// Package arxiv discovers daily papers through the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/paperpulse/paperpulse/internal/domain"
	"github.com/paperpulse/paperpulse/internal/source"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit is the default rate limit. arXiv asks clients to
	// stay at or below 3 requests per second.
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum papers per day.
	DefaultMaxResults = 100

	// sourceName identifies this source in records, logs, and metrics.
	sourceName = "arxiv"
)

// arxivIDRegex extracts the arXiv ID from an entry URL, dropping the
// version suffix. Matches "http://arxiv.org/abs/2301.12345v1" and
// "http://arxiv.org/abs/hep-th/9901001v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults caps papers returned for one day.
	MaxResults int

	// Categories limits discovery to these arXiv categories (e.g. cs.AI).
	Categories []string

	// Enabled indicates whether this source is queried.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client lists daily arXiv submissions.
type Client struct {
	config     Config
	httpClient *source.HTTPClient
}

var _ source.PaperSource = (*Client)(nil)

// New creates an arXiv client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := source.NewHTTPClient(source.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates an arXiv client with a custom HTTP client,
// useful for tests against a mock server.
func NewWithHTTPClient(cfg Config, httpClient *source.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// ListPapers returns the papers submitted to the configured categories
// on the given day, newest first.
func (c *Client) ListPapers(ctx context.Context, day time.Time) ([]domain.PaperRecord, error) {
	listURL, err := c.buildListURL(day)
	if err != nil {
		return nil, fmt.Errorf("building list URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned status %d", resp.StatusCode)
	}

	// Parse the Atom XML response (limit body to 10MB).
	var parsed feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	papers := make([]domain.PaperRecord, 0, len(parsed.Entries))
	for i := range parsed.Entries {
		if paper, ok := c.entryToPaper(&parsed.Entries[i]); ok {
			papers = append(papers, paper)
		}
	}

	return papers, nil
}

// SourceName returns the stable source identifier.
func (c *Client) SourceName() string {
	return sourceName
}

// IsEnabled reports whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildListURL constructs the arXiv query URL for one day's submissions.
func (c *Client) buildListURL(day time.Time) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	searchQuery := c.buildDayFilter(day)
	if catFilter := c.buildCategoryFilter(); catFilter != "" {
		searchQuery = catFilter + " AND " + searchQuery
	}

	query := url.Values{}
	query.Set("search_query", searchQuery)
	query.Set("max_results", strconv.Itoa(c.config.MaxResults))
	query.Set("sortBy", "submittedDate")
	query.Set("sortOrder", "descending")

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// buildCategoryFilter ORs the configured categories into one filter term.
func (c *Client) buildCategoryFilter() string {
	if len(c.config.Categories) == 0 {
		return ""
	}
	terms := make([]string, 0, len(c.config.Categories))
	for _, cat := range c.config.Categories {
		cat = strings.TrimSpace(cat)
		if cat == "" {
			continue
		}
		terms = append(terms, "cat:"+cat)
	}
	if len(terms) == 0 {
		return ""
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

// buildDayFilter constructs the submittedDate range covering one day.
func (c *Client) buildDayFilter(day time.Time) string {
	d := day.Format("20060102")
	return fmt.Sprintf("submittedDate:[%s0000 TO %s2359]", d, d)
}

// entryToPaper converts an Atom entry to a paper record.
func (c *Client) entryToPaper(e *entry) (domain.PaperRecord, bool) {
	arxivID := extractArXivID(e.ID)
	if arxivID == "" {
		return domain.PaperRecord{}, false
	}

	var published *time.Time
	if e.Published != "" {
		if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
			published = &t
		}
	}

	authors := make([]domain.Author, 0, len(e.Authors))
	for _, a := range e.Authors {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		authors = append(authors, domain.Author{
			Name:        name,
			Affiliation: strings.TrimSpace(a.Affiliation),
		})
	}

	// arXiv pads titles and abstracts with newlines and runs of spaces.
	title := normalizeWhitespace(e.Title)
	abstract := normalizeWhitespace(e.Summary)

	pdfURL := ""
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			pdfURL = l.Href
			break
		}
	}
	if pdfURL == "" {
		pdfURL = "https://arxiv.org/pdf/" + arxivID
	}

	return domain.PaperRecord{
		ID:          "arxiv:" + arxivID,
		Title:       title,
		Abstract:    abstract,
		Authors:     authors,
		URL:         "https://arxiv.org/abs/" + arxivID,
		PDFURL:      pdfURL,
		Source:      sourceName,
		PublishedAt: published,
	}, true
}

// extractArXivID pulls the arXiv ID out of an entry URL.
// "http://arxiv.org/abs/2301.12345v1" yields "2301.12345".
func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// normalizeWhitespace trims and collapses whitespace runs to single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}
