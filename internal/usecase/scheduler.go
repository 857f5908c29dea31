package usecase

import (
	"context"
	"log/slog"
	"time"

	"BriefingAgent/internal/ports"
)

// Scheduler wires the interval driver with the dispatcher monitor pass.
type Scheduler struct {
	driver     ports.Scheduler
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring monitor passes.
func NewScheduler(driver ports.Scheduler, dispatcher *Dispatcher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, dispatcher: dispatcher, logger: logger}
}

// Start registers the monitor pass with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.dispatcher == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.dispatcher.Monitor(ctx); err != nil {
			s.logger.Error("monitor pass failed", "trigger", trigger, "error", err)
		}
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
