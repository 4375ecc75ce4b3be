package digest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperpulse/paperpulse/internal/domain"
)

func successOutcome(id string, index int) domain.PaperOutcome {
	paper := domain.PaperRecord{ID: id, Title: "Paper " + id, DiscoveryIndex: index}
	return domain.SuccessOutcome(paper,
		&domain.ExtractedContent{PaperID: id, Text: "text"},
		&domain.AnalysisResult{PaperID: id, TLDR: "TLDR " + id, KeyContributions: []string{"c1"}},
	)
}

func failureOutcome(id string, index int, kind domain.OutcomeKind, reason domain.FailureReason) domain.PaperOutcome {
	paper := domain.PaperRecord{ID: id, Title: "Paper " + id, DiscoveryIndex: index}
	return domain.FailureOutcome(paper, kind, reason)
}

func TestAggregate(t *testing.T) {
	day := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 25, 6, 30, 0, 0, time.UTC)

	t.Run("four successes and one failure make a degraded digest", func(t *testing.T) {
		outcomes := map[string]domain.PaperOutcome{
			"p0": successOutcome("p0", 0),
			"p1": successOutcome("p1", 1),
			"p2": failureOutcome("p2", 2, domain.OutcomeExtractionFailed, domain.ReasonUnreachable),
			"p3": successOutcome("p3", 3),
			"p4": successOutcome("p4", 4),
		}

		payload := Aggregate("run-1", day, outcomes, now)

		assert.Equal(t, 5, payload.Discovered)
		assert.Len(t, payload.Entries, 4)
		assert.Equal(t, 1, payload.FailureCount())
		assert.Equal(t, 1, payload.Failures[domain.ReasonUnreachable])
		assert.False(t, payload.AllFailed)
	})

	t.Run("entries are ordered by discovery index", func(t *testing.T) {
		outcomes := map[string]domain.PaperOutcome{
			"z": successOutcome("z", 0),
			"a": successOutcome("a", 2),
			"m": successOutcome("m", 1),
		}

		payload := Aggregate("run-1", day, outcomes, now)

		require.Len(t, payload.Entries, 3)
		assert.Equal(t, "z", payload.Entries[0].Paper.ID)
		assert.Equal(t, "m", payload.Entries[1].Paper.ID)
		assert.Equal(t, "a", payload.Entries[2].Paper.ID)
	})

	t.Run("ties on discovery index break by paper ID", func(t *testing.T) {
		outcomes := map[string]domain.PaperOutcome{
			"b": successOutcome("b", 0),
			"a": successOutcome("a", 0),
		}

		payload := Aggregate("run-1", day, outcomes, now)

		require.Len(t, payload.Entries, 2)
		assert.Equal(t, "a", payload.Entries[0].Paper.ID)
		assert.Equal(t, "b", payload.Entries[1].Paper.ID)
	})

	t.Run("identical inputs produce identical payloads", func(t *testing.T) {
		outcomes := map[string]domain.PaperOutcome{
			"p0": successOutcome("p0", 0),
			"p1": successOutcome("p1", 1),
			"p2": successOutcome("p2", 2),
			"p3": failureOutcome("p3", 3, domain.OutcomeAnalysisFailed, domain.ReasonModelError),
		}

		first := Aggregate("run-1", day, outcomes, now)
		for i := 0; i < 10; i++ {
			again := Aggregate("run-1", day, outcomes, now)
			assert.Equal(t, first, again)
		}
	})

	t.Run("all failures flag the payload and keep delivery viable", func(t *testing.T) {
		outcomes := map[string]domain.PaperOutcome{
			"p0": failureOutcome("p0", 0, domain.OutcomeExtractionFailed, domain.ReasonMalformed),
			"p1": failureOutcome("p1", 1, domain.OutcomeTimedOut, domain.ReasonTimeout),
		}

		payload := Aggregate("run-1", day, outcomes, now)

		assert.True(t, payload.AllFailed)
		assert.Empty(t, payload.Entries)
		assert.Equal(t, 2, payload.FailureCount())
	})

	t.Run("empty outcomes yield an empty, non-all-failed payload", func(t *testing.T) {
		payload := Aggregate("run-1", day, map[string]domain.PaperOutcome{}, now)

		assert.False(t, payload.AllFailed)
		assert.Zero(t, payload.Discovered)
	})
}

func TestMarkdownRenderer_Render(t *testing.T) {
	day := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 25, 6, 30, 0, 0, time.UTC)

	t.Run("renders entries with summaries and links", func(t *testing.T) {
		paper := domain.PaperRecord{
			ID:    "arxiv:1",
			Title: "Attention Is Still All You Need",
			Authors: []domain.Author{
				{Name: "Ada Lovelace"}, {Name: "Grace Hopper"}, {Name: "Alan Turing"},
			},
			URL:     "https://arxiv.org/abs/1",
			Upvotes: 42,
		}
		outcomes := map[string]domain.PaperOutcome{
			"arxiv:1": domain.SuccessOutcome(paper,
				&domain.ExtractedContent{PaperID: "arxiv:1", Text: "text"},
				&domain.AnalysisResult{
					PaperID:          "arxiv:1",
					TLDR:             "Transformers still win.",
					KeyContributions: []string{"Shows X", "Proves Y"},
					Topics:           []string{"transformers"},
				},
			),
		}
		payload := Aggregate("run-1", day, outcomes, now)

		var sb strings.Builder
		n, err := NewMarkdownRenderer(&sb).Render(payload)
		require.NoError(t, err)
		assert.Positive(t, n)

		out := sb.String()
		assert.Contains(t, out, "# Paper Pulse — August 25, 2026")
		assert.Contains(t, out, "Attention Is Still All You Need")
		assert.Contains(t, out, "Ada Lovelace et al.")
		assert.Contains(t, out, "42 upvotes")
		assert.Contains(t, out, "Transformers still win.")
		assert.Contains(t, out, "- Shows X")
		assert.Contains(t, out, "https://arxiv.org/abs/1")
		assert.NotContains(t, out, "## Failures")
	})

	t.Run("renders failure table and all-failed warning", func(t *testing.T) {
		outcomes := map[string]domain.PaperOutcome{
			"p0": failureOutcome("p0", 0, domain.OutcomeExtractionFailed, domain.ReasonUnreachable),
			"p1": failureOutcome("p1", 1, domain.OutcomeAnalysisFailed, domain.ReasonModelError),
		}
		payload := Aggregate("run-1", day, outcomes, now)

		var sb strings.Builder
		_, err := NewMarkdownRenderer(&sb).Render(payload)
		require.NoError(t, err)

		out := sb.String()
		assert.Contains(t, out, "## Failures")
		assert.Contains(t, out, "unreachable")
		assert.Contains(t, out, "model_error")
		assert.Contains(t, out, "Every paper in this run failed")
	})
}
