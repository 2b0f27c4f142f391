package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/nivesh/internal/services/navsync"
)

// StartScheduler refreshes the universe every sync.interval, plus once
// immediately when sync.on_start is set.
func (a *App) StartScheduler() error {
	if a.scheduler != nil {
		return nil
	}
	interval := a.Config.Sync.GetInterval()

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), a.runScheduledSync); err != nil {
		return fmt.Errorf("failed to schedule NAV sync: %w", err)
	}
	c.Start()
	a.scheduler = c

	a.Logger.Info().Dur("interval", interval).Bool("on_start", a.Config.Sync.OnStart).Msg("Sync scheduler: started")

	if a.Config.Sync.OnStart {
		go a.runScheduledSync()
	}
	return nil
}

// StopScheduler stops future runs and waits briefly for a running one.
func (a *App) StopScheduler() {
	if a.scheduler == nil {
		return
	}
	done := a.scheduler.Stop()
	a.scheduler = nil

	select {
	case <-done.Done():
	case <-time.After(5 * time.Second):
		a.Logger.Warn().Msg("Sync scheduler: running sync did not finish before shutdown")
	}
	a.Logger.Info().Msg("Sync scheduler: stopped")
}

func (a *App) runScheduledSync() {
	// A batch never outlives two intervals.
	ctx, cancel := context.WithTimeout(context.Background(), 2*a.Config.Sync.GetInterval())
	defer cancel()

	report, err := a.Sync.SyncAll(ctx)
	if errors.Is(err, navsync.ErrSyncInProgress) {
		a.Logger.Debug().Msg("Sync scheduler: previous batch still running, skipping tick")
		return
	}
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Sync scheduler: batch failed")
		return
	}
	if report.Failed > 0 {
		a.Logger.Warn().Int("failed", report.Failed).Int("updated", report.Updated).Msg("Sync scheduler: batch completed with failures")
	}
}
