// Package janitor runs nightly retention sweeps: published outbox rows,
// consumed inbox entries, finished scheduler jobs.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweep deletes rows older than the cutoff and reports how many went.
type Sweep struct {
	Name  string
	Purge func(ctx context.Context, before time.Time) (int64, error)
}

type Janitor struct {
	logger    *slog.Logger
	schedule  string
	retention time.Duration
	sweeps    []Sweep
}

// New builds a janitor with a cron schedule (standard 5-field spec) and a
// retention window.
func New(logger *slog.Logger, schedule string, retention time.Duration, sweeps ...Sweep) *Janitor {
	if schedule == "" {
		schedule = "30 3 * * *"
	}
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &Janitor{
		logger:    logger,
		schedule:  schedule,
		retention: retention,
		sweeps:    sweeps,
	}
}

// Run blocks until the context is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	c := cron.New()
	_, err := c.AddFunc(j.schedule, func() { j.sweepAll(ctx) })
	if err != nil {
		j.logger.Error("janitor disabled: bad schedule", "schedule", j.schedule, "err", err)
		return
	}
	c.Start()
	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
}

func (j *Janitor) sweepAll(ctx context.Context) {
	before := time.Now().UTC().Add(-j.retention)
	for _, s := range j.sweeps {
		n, err := s.Purge(ctx, before)
		if err != nil {
			j.logger.Error("janitor sweep failed", "sweep", s.Name, "err", err)
			continue
		}
		if n > 0 {
			j.logger.Info("janitor sweep done", "sweep", s.Name, "deleted", n)
		}
	}
}
