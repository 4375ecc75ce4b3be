// Package orchestrator drives one digest run: discovery fans out to a
// bounded pool of paper workers, their outcomes fan back in, and the
// aggregated digest goes to the delivery sink.
package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/paperpulse/paperpulse/internal/domain"
)

// RunState tracks one run's papers from pending to terminal. Every
// discovered paper is either pending or completed, never both and never
// neither; completed outcomes are write-once. The per-paper status map
// mirrors each paper's progress through the worker steps for logs and
// operators. Safe for concurrent use.
type RunState struct {
	mu        sync.Mutex
	runID     string
	day       time.Time
	status    domain.RunStatus
	pending   map[string]domain.PaperRecord
	completed map[string]domain.PaperOutcome
	statuses  map[string]domain.PaperStatus
}

// NewRunState creates the state for a run tracking the given papers,
// all pending.
func NewRunState(runID string, day time.Time, papers []domain.PaperRecord) *RunState {
	pending := make(map[string]domain.PaperRecord, len(papers))
	statuses := make(map[string]domain.PaperStatus, len(papers))
	for _, p := range papers {
		pending[p.ID] = p
		statuses[p.ID] = domain.PaperPending
	}
	return &RunState{
		runID:     runID,
		day:       day,
		status:    domain.RunDiscovering,
		pending:   pending,
		completed: make(map[string]domain.PaperOutcome, len(papers)),
		statuses:  statuses,
	}
}

// RunID returns the run identifier.
func (s *RunState) RunID() string { return s.runID }

// Day returns the discovery day the run covers.
func (s *RunState) Day() time.Time { return s.day }

// Status returns the current run status.
func (s *RunState) Status() domain.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetStatus advances the run status. Terminal statuses are final;
// transitions out of them are ignored.
func (s *RunState) SetStatus(status domain.RunStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = status
}

// SetPaperStatus records a paper's progress through the worker steps.
// Untracked papers and transitions out of a terminal status are ignored;
// terminal statuses are written by Complete and ForceTimeouts only.
func (s *RunState) SetPaperStatus(paperID string, status domain.PaperStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.statuses[paperID]
	if !ok || cur.Terminal() {
		return
	}
	s.statuses[paperID] = status
}

// PaperStatuses returns a copy of the per-paper statuses.
func (s *RunState) PaperStatuses() map[string]domain.PaperStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.PaperStatus, len(s.statuses))
	for id, st := range s.statuses {
		out[id] = st
	}
	return out
}

// Complete records a paper's terminal outcome. It fails if the paper was
// never discovered or already has an outcome; outcomes never change once
// written.
func (s *RunState) Complete(outcome domain.PaperOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := outcome.Paper.ID
	if _, done := s.completed[id]; done {
		return fmt.Errorf("paper %s already has an outcome", id)
	}
	if _, ok := s.pending[id]; !ok {
		return fmt.Errorf("paper %s is not tracked by this run", id)
	}

	delete(s.pending, id)
	s.completed[id] = outcome
	if outcome.Succeeded() {
		s.statuses[id] = domain.PaperSucceeded
	} else {
		s.statuses[id] = domain.PaperFailed
	}
	return nil
}

// ForceTimeouts moves every still-pending paper to a timed-out outcome
// and returns how many were forced. Called when the run deadline fires
// with workers still in flight.
func (s *RunState) ForceTimeouts() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	forced := 0
	for id, paper := range s.pending {
		s.completed[id] = domain.TimeoutOutcome(paper)
		s.statuses[id] = domain.PaperFailed
		delete(s.pending, id)
		forced++
	}
	return forced
}

// PendingCount returns how many papers lack an outcome.
func (s *RunState) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Outcomes returns a copy of the completed outcomes keyed by paper ID.
func (s *RunState) Outcomes() map[string]domain.PaperOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.PaperOutcome, len(s.completed))
	for id, o := range s.completed {
		out[id] = o
	}
	return out
}

// Counts returns the number of succeeded, failed, and timed-out papers
// among the completed outcomes. Timed-out papers count as failed too.
func (s *RunState) Counts() (succeeded, failed, timedOut int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.completed {
		switch {
		case o.Succeeded():
			succeeded++
		case o.Kind == domain.OutcomeTimedOut:
			failed++
			timedOut++
		default:
			failed++
		}
	}
	return succeeded, failed, timedOut
}
