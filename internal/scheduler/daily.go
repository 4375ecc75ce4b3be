// Package scheduler fires the digest pipeline once per day at a fixed
// wall-clock time.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RunFunc executes one digest run covering the given day.
type RunFunc func(ctx context.Context, day time.Time) error

// Daily triggers a run once per day at a configured local time.
type Daily struct {
	hour   int
	minute int
	loc    *time.Location
	logger zerolog.Logger

	// now is swapped in tests.
	now func() time.Time
}

// NewDaily creates a scheduler firing at the "15:04"-formatted time in loc.
func NewDaily(at string, loc *time.Location, logger zerolog.Logger) (*Daily, error) {
	parsed, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("parse schedule time %q: %w", at, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Daily{
		hour:   parsed.Hour(),
		minute: parsed.Minute(),
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Next returns the first firing time strictly after t.
func (d *Daily) Next(t time.Time) time.Time {
	local := t.In(d.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, d.loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// CoverageDay returns the digest day for a run firing at t: the previous
// calendar day in loc. A morning run digests yesterday's papers, which
// the sources have fully published by then.
func CoverageDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -1)
}

// Run fires fn once per day until ctx is cancelled. A failed run is
// logged and does not stop the loop; the next day gets a fresh attempt.
func (d *Daily) Run(ctx context.Context, fn RunFunc) error {
	for {
		now := d.now()
		next := d.Next(now)
		d.logger.Info().Time("next_run", next).Msg("waiting for next scheduled run")

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		day := CoverageDay(next, d.loc)
		if err := fn(ctx, day); err != nil {
			d.logger.Error().Err(err).Time("day", day).Msg("scheduled run failed")
		}
	}
}
