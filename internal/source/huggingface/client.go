// Package huggingface discovers papers from the Hugging Face daily
// papers page by scraping its HTML.
package huggingface

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/paperpulse/paperpulse/internal/domain"
	"github.com/paperpulse/paperpulse/internal/source"
)

const (
	// DefaultBaseURL is the default Hugging Face base URL.
	DefaultBaseURL = "https://huggingface.co"

	// DefaultRateLimit is the default rate limit in requests per second.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum papers per day.
	DefaultMaxResults = 50

	// sourceName identifies this source in records, logs, and metrics.
	sourceName = "huggingface"
)

// paperHrefRegex matches paper links like "/papers/2301.12345".
var paperHrefRegex = regexp.MustCompile(`^/papers/(\d{4}\.\d{4,5})`)

// Config holds configuration for the Hugging Face client.
type Config struct {
	// BaseURL is the Hugging Face base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults caps papers returned for one day.
	MaxResults int

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

// Client scrapes the Hugging Face daily papers page.
type Client struct {
	config     Config
	httpClient *source.HTTPClient
}

var _ source.PaperSource = (*Client)(nil)

// New creates a Hugging Face client with the given configuration.
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

// NewWithHTTPClient creates a client with a custom HTTP client, useful
// for tests against a mock server.
func NewWithHTTPClient(cfg Config, httpClient *source.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// ListPapers scrapes the daily papers page for the given day and returns
// the papers in page order, which reflects community ranking.
func (c *Client) ListPapers(ctx context.Context, day time.Time) ([]domain.PaperRecord, error) {
	pageURL, err := c.buildPageURL(day)
	if err != nil {
		return nil, fmt.Errorf("building page URL: %w", err)
	}

	doc, err := c.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return c.extractPapers(doc), nil
}

// SourceName returns the stable source identifier.
func (c *Client) SourceName() string {
	return sourceName
}

// IsEnabled reports whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildPageURL constructs the daily papers page URL for one day.
func (c *Client) buildPageURL(day time.Time) (string, error) {
	parsed, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/papers/date/" + day.Format("2006-01-02")
	return parsed.String(), nil
}

func (c *Client) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("huggingface returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	return doc, nil
}

// extractPapers walks the paper cards on the page. Each card links to
// /papers/<arxiv-id>; the link text is the title and a nearby counter
// carries the upvote total.
func (c *Client) extractPapers(doc *goquery.Document) []domain.PaperRecord {
	var papers []domain.PaperRecord
	seen := map[string]struct{}{}

	doc.Find("article").EachWithBreak(func(i int, card *goquery.Selection) bool {
		if len(papers) >= c.config.MaxResults {
			return false
		}

		paper, ok := c.parseCard(card)
		if !ok {
			return true
		}
		if _, dup := seen[paper.ID]; dup {
			return true
		}
		seen[paper.ID] = struct{}{}
		papers = append(papers, paper)
		return true
	})

	return papers
}

func (c *Client) parseCard(card *goquery.Selection) (domain.PaperRecord, bool) {
	var arxivID, title string

	card.Find(`a[href^="/papers/"]`).EachWithBreak(func(i int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		matches := paperHrefRegex.FindStringSubmatch(href)
		if matches == nil {
			return true
		}
		arxivID = matches[1]
		if text := normalizeWhitespace(link.Text()); text != "" {
			title = text
			return false
		}
		return true
	})

	if arxivID == "" || title == "" {
		return domain.PaperRecord{}, false
	}

	return domain.PaperRecord{
		ID:      "arxiv:" + arxivID,
		Title:   title,
		Authors: parseAuthors(card),
		URL:     c.config.BaseURL + "/papers/" + arxivID,
		PDFURL:  "https://arxiv.org/pdf/" + arxivID,
		Source:  sourceName,
		Upvotes: parseUpvotes(card),
	}, true
}

// parseUpvotes finds the vote counter on a card. The counter is a short
// numeric label, possibly abbreviated like "1.2k".
func parseUpvotes(card *goquery.Selection) int {
	upvotes := 0
	card.Find("div, span, label").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if n, ok := parseCount(text); ok {
			upvotes = n
			return false
		}
		return true
	})
	return upvotes
}

// parseCount parses a compact counter like "42" or "1.2k". Anything that
// is not purely a counter is rejected.
func parseCount(text string) (int, bool) {
	if text == "" || len(text) > 6 {
		return 0, false
	}
	if n, err := strconv.Atoi(text); err == nil && n >= 0 {
		return n, true
	}
	lower := strings.ToLower(text)
	if strings.HasSuffix(lower, "k") {
		if f, err := strconv.ParseFloat(strings.TrimSuffix(lower, "k"), 64); err == nil && f >= 0 {
			return int(f * 1000), true
		}
	}
	return 0, false
}

// parseAuthors collects author names from a card when present. The daily
// page lists authors only in expanded cards, so an empty result is
// common.
func parseAuthors(card *goquery.Selection) []domain.Author {
	var authors []domain.Author
	card.Find(`a[href^="/authors/"], span.author`).Each(func(i int, sel *goquery.Selection) {
		name := normalizeWhitespace(sel.Text())
		if name == "" {
			return
		}
		authors = append(authors, domain.Author{Name: name})
	})
	return authors
}

// normalizeWhitespace trims and collapses whitespace runs to single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}
