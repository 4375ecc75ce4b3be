// Package digest collects the run's paper outcomes into a deliverable
// digest and renders it for the configured sink.
package digest

import (
	"sort"
	"time"

	"github.com/paperpulse/paperpulse/internal/domain"
)

// Aggregate folds the run's terminal outcomes into a DigestPayload.
//
// Successful analyses become entries ordered by discovery index, ties
// broken by paper ID, so identical inputs always produce an identical
// digest. Failed papers are reduced to per-reason counts; their error
// payloads stay in the logs. When every paper failed the payload is
// flagged AllFailed and still delivered, so operators see the run
// happened.
func Aggregate(runID string, day time.Time, outcomes map[string]domain.PaperOutcome, now time.Time) *domain.DigestPayload {
	payload := &domain.DigestPayload{
		RunID:       runID,
		Day:         day,
		GeneratedAt: now,
		Discovered:  len(outcomes),
	}

	for _, outcome := range outcomes {
		if outcome.Succeeded() {
			payload.Entries = append(payload.Entries, domain.DigestEntry{
				Paper:    outcome.Paper,
				Analysis: *outcome.Analysis,
			})
			continue
		}
		if payload.Failures == nil {
			payload.Failures = make(map[domain.FailureReason]int)
		}
		payload.Failures[outcome.Reason]++
	}

	sort.Slice(payload.Entries, func(i, j int) bool {
		a, b := payload.Entries[i].Paper, payload.Entries[j].Paper
		if a.DiscoveryIndex != b.DiscoveryIndex {
			return a.DiscoveryIndex < b.DiscoveryIndex
		}
		return a.ID < b.ID
	})

	payload.AllFailed = len(payload.Entries) == 0 && len(outcomes) > 0

	return payload
}
