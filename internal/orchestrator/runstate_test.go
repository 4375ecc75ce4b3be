package orchestrator

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperpulse/paperpulse/internal/domain"
)

func testPapers(n int) []domain.PaperRecord {
	papers := make([]domain.PaperRecord, n)
	for i := range papers {
		id := fmt.Sprintf("arxiv:2608.%05d", i+1)
		papers[i] = domain.PaperRecord{
			ID:             id,
			Title:          fmt.Sprintf("Paper %d", i+1),
			URL:            "https://arxiv.org/abs/" + id[len("arxiv:"):],
			PDFURL:         "https://arxiv.org/pdf/" + id[len("arxiv:"):],
			Source:         "arxiv",
			DiscoveryIndex: i,
		}
	}
	return papers
}

func TestRunState(t *testing.T) {
	day := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	t.Run("new state tracks every paper as pending", func(t *testing.T) {
		papers := testPapers(3)
		state := NewRunState("run-1", day, papers)

		assert.Equal(t, "run-1", state.RunID())
		assert.Equal(t, day, state.Day())
		assert.Equal(t, 3, state.PendingCount())
		assert.Empty(t, state.Outcomes())
	})

	t.Run("complete moves a paper from pending to its outcome", func(t *testing.T) {
		papers := testPapers(2)
		state := NewRunState("run-1", day, papers)

		require.NoError(t, state.Complete(domain.SuccessOutcome(papers[0], &domain.ExtractedContent{Text: "body"}, &domain.AnalysisResult{TLDR: "tldr"})))

		assert.Equal(t, 1, state.PendingCount())
		outcomes := state.Outcomes()
		require.Len(t, outcomes, 1)
		assert.Equal(t, domain.OutcomeSucceeded, outcomes[papers[0].ID].Kind)
	})

	t.Run("outcomes are write-once", func(t *testing.T) {
		papers := testPapers(1)
		state := NewRunState("run-1", day, papers)

		require.NoError(t, state.Complete(domain.SuccessOutcome(papers[0], &domain.ExtractedContent{Text: "body"}, &domain.AnalysisResult{TLDR: "tldr"})))
		err := state.Complete(domain.FailureOutcome(papers[0], domain.OutcomeAnalysisFailed, domain.ReasonModelError))
		require.Error(t, err)

		outcomes := state.Outcomes()
		assert.Equal(t, domain.OutcomeSucceeded, outcomes[papers[0].ID].Kind)
	})

	t.Run("untracked papers are rejected", func(t *testing.T) {
		state := NewRunState("run-1", day, testPapers(1))

		stray := domain.PaperRecord{ID: "arxiv:9999.00001"}
		err := state.Complete(domain.TimeoutOutcome(stray))
		require.Error(t, err)
		assert.Empty(t, state.Outcomes())
	})

	t.Run("force timeouts settles every pending paper", func(t *testing.T) {
		papers := testPapers(4)
		state := NewRunState("run-1", day, papers)

		require.NoError(t, state.Complete(domain.SuccessOutcome(papers[0], &domain.ExtractedContent{Text: "body"}, &domain.AnalysisResult{TLDR: "tldr"})))

		forced := state.ForceTimeouts()
		assert.Equal(t, 3, forced)
		assert.Equal(t, 0, state.PendingCount())

		outcomes := state.Outcomes()
		require.Len(t, outcomes, len(papers))
		for _, p := range papers[1:] {
			assert.Equal(t, domain.OutcomeTimedOut, outcomes[p.ID].Kind)
			assert.Equal(t, domain.ReasonTimeout, outcomes[p.ID].Reason)
		}
	})

	t.Run("force timeouts with nothing pending is a no-op", func(t *testing.T) {
		papers := testPapers(1)
		state := NewRunState("run-1", day, papers)
		require.NoError(t, state.Complete(domain.TimeoutOutcome(papers[0])))

		assert.Equal(t, 0, state.ForceTimeouts())
		assert.Len(t, state.Outcomes(), 1)
	})

	t.Run("counts split completed outcomes by success and timeout", func(t *testing.T) {
		papers := testPapers(3)
		state := NewRunState("run-1", day, papers)

		require.NoError(t, state.Complete(domain.SuccessOutcome(papers[0], &domain.ExtractedContent{Text: "body"}, &domain.AnalysisResult{TLDR: "tldr"})))
		require.NoError(t, state.Complete(domain.FailureOutcome(papers[1], domain.OutcomeExtractionFailed, domain.ReasonMalformed)))
		require.NoError(t, state.Complete(domain.TimeoutOutcome(papers[2])))

		succeeded, failed, timedOut := state.Counts()
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 2, failed)
		assert.Equal(t, 1, timedOut)
	})

	t.Run("forced papers count as timed out", func(t *testing.T) {
		papers := testPapers(2)
		state := NewRunState("run-1", day, papers)

		require.NoError(t, state.Complete(domain.SuccessOutcome(papers[0], &domain.ExtractedContent{Text: "body"}, &domain.AnalysisResult{TLDR: "tldr"})))
		state.ForceTimeouts()

		succeeded, failed, timedOut := state.Counts()
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, failed)
		assert.Equal(t, 1, timedOut)
	})

	t.Run("status transitions are recorded", func(t *testing.T) {
		state := NewRunState("run-1", day, testPapers(1))
		assert.Equal(t, domain.RunDiscovering, state.Status())

		state.SetStatus(domain.RunProcessing)
		assert.Equal(t, domain.RunProcessing, state.Status())
	})

	t.Run("terminal run status is final", func(t *testing.T) {
		state := NewRunState("run-1", day, testPapers(1))

		state.SetStatus(domain.RunDone)
		state.SetStatus(domain.RunProcessing)
		assert.Equal(t, domain.RunDone, state.Status())
	})

	t.Run("paper status follows the worker steps to a terminal state", func(t *testing.T) {
		papers := testPapers(2)
		state := NewRunState("run-1", day, papers)

		statuses := state.PaperStatuses()
		assert.Equal(t, domain.PaperPending, statuses[papers[0].ID])

		state.SetPaperStatus(papers[0].ID, domain.PaperExtracting)
		state.SetPaperStatus(papers[0].ID, domain.PaperAnalyzing)
		assert.Equal(t, domain.PaperAnalyzing, state.PaperStatuses()[papers[0].ID])

		require.NoError(t, state.Complete(domain.SuccessOutcome(papers[0], &domain.ExtractedContent{Text: "body"}, &domain.AnalysisResult{TLDR: "tldr"})))
		require.NoError(t, state.Complete(domain.FailureOutcome(papers[1], domain.OutcomeAnalysisFailed, domain.ReasonModelError)))

		statuses = state.PaperStatuses()
		assert.Equal(t, domain.PaperSucceeded, statuses[papers[0].ID])
		assert.Equal(t, domain.PaperFailed, statuses[papers[1].ID])
	})

	t.Run("terminal paper status accepts no further transitions", func(t *testing.T) {
		papers := testPapers(1)
		state := NewRunState("run-1", day, papers)

		require.NoError(t, state.Complete(domain.TimeoutOutcome(papers[0])))
		state.SetPaperStatus(papers[0].ID, domain.PaperExtracting)
		assert.Equal(t, domain.PaperFailed, state.PaperStatuses()[papers[0].ID])

		state.SetPaperStatus("arxiv:9999.00001", domain.PaperExtracting)
		assert.NotContains(t, state.PaperStatuses(), "arxiv:9999.00001")
	})
}
