package ingest

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler runs a job once a day at a fixed hour.
type Scheduler struct {
	hour int
	loc  *time.Location
	log  *slog.Logger
	now  func() time.Time
}

func NewScheduler(hour int, loc *time.Location, log *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{hour: hour, loc: loc, log: log, now: time.Now}
}

// Run blocks until ctx is done, calling job at every scheduled hour.
func (s *Scheduler) Run(ctx context.Context, job func(ctx context.Context) error) {
	for {
		next := nextRun(s.now(), s.hour, s.loc)
		s.log.Info("adjust sync scheduled", slog.Time("at", next))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err := job(ctx); err != nil {
			s.log.Error("scheduled job failed", slog.String("err", err.Error()))
		}
	}
}

// nextRun is the first hour:00 in loc strictly after now.
func nextRun(now time.Time, hour int, loc *time.Location) time.Time {
	n := now.In(loc)
	at := time.Date(n.Year(), n.Month(), n.Day(), hour, 0, 0, 0, loc)
	if !at.After(n) {
		at = time.Date(n.Year(), n.Month(), n.Day()+1, hour, 0, 0, 0, loc)
	}
	return at
}
