package collector

import (
	"context"
	"time"

	"apigw-exporter/internal/logger"
)

// CycleRunner is what the scheduler drives; satisfied by *Collector.
type CycleRunner interface {
	Run(ctx context.Context) error
}

// Scheduler runs refresh cycles on a fixed interval from a single
// goroutine: one cycle immediately, then one per tick until the context
// is canceled. Because it never starts a cycle before the previous one
// returned, cycles cannot overlap and the worst-case backend concurrency
// stays the collector's worker bound.
type Scheduler struct {
	runner   CycleRunner
	interval time.Duration
	lgr      logger.Logger
}

// NewScheduler builds a scheduler driving runner every interval.
func NewScheduler(runner CycleRunner, interval time.Duration, lgr logger.Logger) *Scheduler {
	return &Scheduler{runner: runner, interval: interval, lgr: lgr}
}

// RunLoop blocks until ctx is done. Cycle failures are logged and retried
// on the next tick; they never escape the loop.
func (s *Scheduler) RunLoop(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	if err := s.runner.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.lgr.Error("refresh cycle failed, retrying next interval", logger.F("err", err))
		return
	}
	elapsed := time.Since(start)
	if elapsed > s.interval {
		s.lgr.Warn("refresh cycle ran longer than the interval",
			logger.F("elapsed_ms", elapsed.Milliseconds()),
			logger.F("interval_ms", s.interval.Milliseconds()))
	}
}
