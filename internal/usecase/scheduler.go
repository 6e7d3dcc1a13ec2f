package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"NewsRadar/internal/ports"
)

// Scheduler wires the cron-like driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided scheduler. Run errors are
// logged; the next trigger starts a fresh run.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		_, err := s.pipeline.Run(ctx, trigger)
		if err == nil || s.logger == nil {
			return
		}
		if errors.Is(err, ErrNothingToReport) {
			s.logger.Info("run skipped", "reason", err)
			return
		}
		s.logger.Error("run failed", "trigger", trigger, "error", err)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
