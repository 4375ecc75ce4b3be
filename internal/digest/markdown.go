package digest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/paperpulse/paperpulse/internal/domain"
)

// MarkdownRenderer renders a digest as Markdown for chat sinks that
// accept it (Slack converts it server-side, Telegram takes it directly).
type MarkdownRenderer struct {
	output io.Writer
}

// NewMarkdownRenderer creates a renderer writing to the given writer.
func NewMarkdownRenderer(output io.Writer) *MarkdownRenderer {
	return &MarkdownRenderer{output: output}
}

// Render writes the digest document and returns its length in bytes.
func (r *MarkdownRenderer) Render(payload *domain.DigestPayload) (int, error) {
	md := markdown.NewMarkdown(r.output)

	r.writeHeader(md, payload)
	r.writeEntries(md, payload)
	r.writeFailures(md, payload)

	return len(md.String()), md.Build()
}

// writeHeader writes the digest title and run summary.
func (r *MarkdownRenderer) writeHeader(md *markdown.Markdown, payload *domain.DigestPayload) {
	md.H1("Paper Pulse — " + payload.Day.Format("January 2, 2006"))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Papers tracked", strconv.Itoa(payload.Discovered)},
			{"Summarized", strconv.Itoa(len(payload.Entries))},
			{"Failed", strconv.Itoa(payload.FailureCount())},
			{"Generated", payload.GeneratedAt.Format("2006-01-02 15:04 MST")},
		},
	})
	md.PlainText("")

	if payload.AllFailed {
		md.Warningf("Every paper in this run failed processing; see the failure summary below.")
		md.PlainText("")
	}
}

// writeEntries writes one section per summarized paper.
func (r *MarkdownRenderer) writeEntries(md *markdown.Markdown, payload *domain.DigestPayload) {
	if len(payload.Entries) == 0 {
		return
	}

	for i, entry := range payload.Entries {
		md.H2(fmt.Sprintf("%d. %s", i+1, entry.Paper.Title))
		md.PlainText("")

		meta := entry.Paper.AuthorList()
		if entry.Paper.Upvotes > 0 {
			meta += fmt.Sprintf(" · %d upvotes", entry.Paper.Upvotes)
		}
		if meta != "" {
			md.PlainTextf("*%s*", meta)
			md.PlainText("")
		}

		md.PlainTextf("**TL;DR:** %s", entry.Analysis.TLDR)
		md.PlainText("")

		if len(entry.Analysis.KeyContributions) > 0 {
			md.PlainText("**Key contributions:**")
			md.BulletList(entry.Analysis.KeyContributions...)
			md.PlainText("")
		}

		if len(entry.Analysis.TechnicalInsights) > 0 {
			md.PlainText("**Technical insights:**")
			md.BulletList(entry.Analysis.TechnicalInsights...)
			md.PlainText("")
		}

		if len(entry.Analysis.Topics) > 0 {
			md.PlainTextf("Topics: %s", strings.Join(entry.Analysis.Topics, ", "))
			md.PlainText("")
		}

		if entry.Paper.URL != "" {
			md.PlainTextf("[Read the paper](%s)", entry.Paper.URL)
			md.PlainText("")
		}
	}
}

// writeFailures writes the per-reason failure counts when any exist.
func (r *MarkdownRenderer) writeFailures(md *markdown.Markdown, payload *domain.DigestPayload) {
	if payload.FailureCount() == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, 0, len(payload.Failures))
	for _, reason := range []domain.FailureReason{
		domain.ReasonUnreachable,
		domain.ReasonMalformed,
		domain.ReasonTimeout,
		domain.ReasonModelError,
		domain.ReasonRateLimited,
	} {
		if count, ok := payload.Failures[reason]; ok {
			rows = append(rows, []string{string(reason), strconv.Itoa(count)})
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Reason", "Papers"},
		Rows:   rows,
	})
	md.PlainText("")
}
