package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultSweepSchedule = "*/15 * * * *"

// DeadlineSweeper periodically removes deadlines of sessions that were never
// submitted, once they are older than the grace period.
type DeadlineSweeper struct {
	purger   DeadlinePurger
	schedule string
	grace    time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDeadlineSweeper creates a new deadline sweeper.
func NewDeadlineSweeper(purger DeadlinePurger, schedule string, grace time.Duration, logger *zap.Logger) *DeadlineSweeper {
	if schedule == "" {
		schedule = defaultSweepSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeadlineSweeper{
		purger:   purger,
		schedule: schedule,
		grace:    grace,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the sweep on schedule until ctx is done.
func (s *DeadlineSweeper) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("failed to sweep deadlines", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("add sweep job: %w", err)
	}

	c.Start()
	s.logger.Info("deadline sweeper started", zap.String("schedule", s.schedule))

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("deadline sweeper stopped")

	return nil
}

// Sweep removes deadlines that passed more than the grace period ago.
func (s *DeadlineSweeper) Sweep(ctx context.Context) (int64, error) {
	before := s.now().Add(-s.grace)

	n, err := s.purger.PurgeExpired(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("purge expired deadlines: %w", err)
	}

	if n > 0 {
		s.logger.Info("stale deadlines removed", zap.Int64("count", n), zap.Time("before", before))
	}

	return n, nil
}
