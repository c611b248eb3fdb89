package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers a full reload on a cron schedule. Overlapping ticks
// are skipped rather than queued.
type Scheduler struct {
	loader *Loader
	spec   string
	logger *slog.Logger
}

// NewScheduler creates a Scheduler for a standard five-field cron spec.
func NewScheduler(loader *Loader, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{loader: loader, spec: spec, logger: logger}
}

// Run performs the initial load, then reloads on every tick until ctx is
// cancelled. An empty spec loads once.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.loader.Run(ctx); err != nil {
		return err
	}
	if s.spec == "" {
		s.logger.Info("no reload schedule configured, loaded once")
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule reload %q: %w", s.spec, err)
	}
	c.Start()
	s.logger.Info("reload schedule started", "schedule", s.spec)

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	s.logger.Info("reload schedule stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.loader.Load(ctx); err != nil {
		s.logger.Error("scheduled reload failed", "error", err)
	}
}
