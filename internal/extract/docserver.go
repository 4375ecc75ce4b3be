package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/paperpulse/paperpulse/internal/domain"
)

// ServiceConfig configures the extraction service client.
type ServiceConfig struct {
	// URL is the extraction endpoint, e.g. "http://docserver:5001/v1/extract".
	URL string
	// APIKey authenticates against the service when set.
	APIKey string
	// Timeout covers one extraction call, download excluded.
	Timeout time.Duration
	// AllowPrivateNetworks is forwarded to the PDF downloader. Tests only.
	AllowPrivateNetworks bool
	// MaxPDFSize is the maximum accepted PDF size in bytes.
	MaxPDFSize int64
}

// serviceResponse is the extraction service's JSON response.
type serviceResponse struct {
	Text      string `json:"text"`
	PageCount int    `json:"page_count"`
	Figures   []struct {
		Caption string `json:"caption"`
	} `json:"figures"`
	Tables []struct {
		Caption string `json:"caption"`
	} `json:"tables"`
}

// Service extracts structured content by posting PDFs to an external
// document extraction HTTP service.
type Service struct {
	config     ServiceConfig
	downloader *Downloader
	client     *http.Client
	logger     zerolog.Logger
}

var _ Extractor = (*Service)(nil)

// NewService creates an extraction service client with its own PDF
// downloader.
func NewService(cfg ServiceConfig, logger zerolog.Logger) *Service {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &Service{
		config: cfg,
		downloader: NewDownloader(DownloaderConfig{
			Timeout:              cfg.Timeout,
			MaxSize:              cfg.MaxPDFSize,
			AllowPrivateNetworks: cfg.AllowPrivateNetworks,
		}),
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "extractor").Logger(),
	}
}

// Extract downloads the paper's PDF, submits it to the extraction
// service, and returns the structured content. Every failure is a
// *domain.ExtractionError whose reason determines retryability:
// network problems and 5xx responses are unreachable (transient),
// deadline expiry is a timeout (transient), and bad content, oversized
// files, or 4xx rejections are malformed (permanent).
func (s *Service) Extract(ctx context.Context, paper domain.PaperRecord) (*domain.ExtractedContent, error) {
	if paper.PDFURL == "" {
		return nil, domain.NewExtractionError(paper.ID, domain.ReasonMalformed, errors.New("paper has no PDF URL"))
	}

	pdf, err := s.downloader.Download(ctx, paper.PDFURL)
	if err != nil {
		return nil, domain.NewExtractionError(paper.ID, downloadReason(err), fmt.Errorf("download: %w", err))
	}

	content, err := s.submit(ctx, paper.ID, pdf.Content)
	if err != nil {
		return nil, err
	}

	if content.Empty() {
		return nil, domain.NewExtractionError(paper.ID, domain.ReasonMalformed, errors.New("extraction produced no text"))
	}

	s.logger.Debug().
		Str("paper_id", paper.ID).
		Int("pages", content.PageCount).
		Int64("pdf_bytes", pdf.SizeBytes).
		Msg("extraction complete")

	return content, nil
}

// submit posts the PDF to the extraction service and parses the result.
func (s *Service) submit(ctx context.Context, paperID string, pdf []byte) (*domain.ExtractedContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(pdf))
	if err != nil {
		return nil, domain.NewExtractionError(paperID, domain.ReasonMalformed, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(pdf)), nil
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.NewExtractionError(paperID, domain.ReasonTimeout, err)
		}
		return nil, domain.NewExtractionError(paperID, domain.ReasonUnreachable, fmt.Errorf("extraction service: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, domain.NewExtractionError(paperID, domain.ReasonUnreachable,
			fmt.Errorf("extraction service returned status %d", resp.StatusCode))
	default:
		// 4xx means the service rejected this document for good.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, domain.NewExtractionError(paperID, domain.ReasonMalformed,
			fmt.Errorf("extraction service rejected document (status %d): %s", resp.StatusCode, string(body)))
	}

	var parsed serviceResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 50<<20)).Decode(&parsed); err != nil {
		return nil, domain.NewExtractionError(paperID, domain.ReasonMalformed, fmt.Errorf("decoding response: %w", err))
	}

	content := &domain.ExtractedContent{
		PaperID:   paperID,
		Text:      parsed.Text,
		PageCount: parsed.PageCount,
	}
	for _, f := range parsed.Figures {
		content.Figures = append(content.Figures, domain.Figure{Caption: f.Caption})
	}
	for _, tbl := range parsed.Tables {
		content.Tables = append(content.Tables, domain.Table{Caption: tbl.Caption})
	}
	return content, nil
}

// downloadReason classifies a downloader error into a failure reason.
func downloadReason(err error) domain.FailureReason {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ReasonTimeout
	case errors.Is(err, ErrNotPDF), errors.Is(err, ErrTooLarge), errors.Is(err, ErrSSRF):
		return domain.ReasonMalformed
	default:
		return domain.ReasonUnreachable
	}
}
