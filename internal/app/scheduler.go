package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/samvad-hq/catalog-crawler/internal/logger"
)

// Schedule runs RunOnce on the configured cron spec until ctx is done. A tick that fires
// while a run is still active is skipped. An empty spec disables scheduling and Schedule
// just waits for ctx.
func (a *App) Schedule(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("app is not initialized")
	}
	if a.cfg.CrawlSchedule == "" {
		a.log.InfoObj("crawl schedule disabled", "crawl_schedule", "")
		<-ctx.Done()
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{a.log}),
		cron.SkipIfStillRunning(cronLogger{a.log}),
	))
	if _, err := c.AddFunc(a.cfg.CrawlSchedule, func() { a.scheduledRun(ctx) }); err != nil {
		return fmt.Errorf("schedule crawl %q: %w", a.cfg.CrawlSchedule, err)
	}

	a.log.InfoObj("scheduler starting", "scheduler_state", map[string]any{
		"crawl_schedule": a.cfg.CrawlSchedule,
		"catalogs_count": len(a.catalogs),
	})
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	a.log.InfoObj("scheduler exiting", "reason", ctx.Err().Error())
	return nil
}

func (a *App) scheduledRun(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := a.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			a.log.InfoObj("scheduled crawl skipped", "reason", err.Error())
			return
		}
		a.log.ErrorObj("scheduled crawl failed", "error", err.Error())
	}
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.DebugObj(msg, "cron", keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.ErrorObj(msg, "cron", map[string]any{
		"error":  err.Error(),
		"fields": keysAndValues,
	})
}
