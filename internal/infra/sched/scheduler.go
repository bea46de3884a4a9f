package sched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"furnishedstay/internal/app/commands"
	appsync "furnishedstay/internal/app/handlers/sync"
	domainsync "furnishedstay/internal/domain/sync"
)

// Target identifies one link due for a scheduled sync.
type Target struct {
	PropertyID string
	LinkID     string
}

// AutoSyncSource lists every link flagged for automatic syncing across all
// properties.
type AutoSyncSource interface {
	AutoSyncTargets(ctx context.Context) ([]Target, error)
}

// Scheduler triggers feed syncs on a cron spec for every auto-sync link.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	source   AutoSyncSource
	commands commands.Bus
	logger   *slog.Logger
}

func New(spec string, source AutoSyncSource, bus commands.Bus, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(),
		spec:     spec,
		source:   source,
		commands: bus,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.source == nil || s.commands == nil {
		return errors.New("sched: source and command bus are required")
	}
	if _, err := s.cron.AddFunc(s.spec, func() { s.runDue(ctx) }); err != nil {
		return fmt.Errorf("sched: add auto-sync job: %w", err)
	}
	s.cron.Start()
	s.logger.Info("auto-sync scheduler started", "spec", s.spec)

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("auto-sync scheduler stopped")
}

func (s *Scheduler) runDue(ctx context.Context) {
	targets, err := s.source.AutoSyncTargets(ctx)
	if err != nil {
		s.logger.Error("failed to list auto-sync links", "error", err)
		return
	}
	for _, t := range targets {
		cmd := appsync.TriggerSyncCommand{
			CommandID:  uuid.NewString(),
			PropertyID: t.PropertyID,
			LinkID:     t.LinkID,
		}
		if _, err := s.commands.Dispatch(ctx, cmd); err != nil {
			// A link mid-sync is expected when runs overlap the schedule.
			if errors.Is(err, domainsync.ErrSyncInProgress) {
				continue
			}
			s.logger.Warn("auto-sync trigger failed", "property", t.PropertyID, "link", t.LinkID, "error", err)
		}
	}
}
