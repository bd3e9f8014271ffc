// Package jobs schedules periodic maintenance on the server.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/robfig/cron/v3"
)

// ExpiredTokenPurger removes refresh tokens that expired before now.
type ExpiredTokenPurger interface {
	PurgeExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler runs the refresh-token sweep on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	purger ExpiredTokenPurger
	logger logging.Logger
}

func NewScheduler(purger ExpiredTokenPurger, logger logging.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		purger: purger,
		logger: logger.With("module", "jobs"),
	}
}

// Start registers the sweep on schedule and runs until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.SweepOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
	return nil
}

func (s *Scheduler) SweepOnce(ctx context.Context) {
	n, err := s.purger.PurgeExpiredRefreshTokens(ctx, time.Now())
	if err != nil {
		s.logger.Error(ctx, "refresh token sweep failed", "error", err)
		return
	}
	s.logger.Info(ctx, "refresh token sweep done", "removed", n)
}
