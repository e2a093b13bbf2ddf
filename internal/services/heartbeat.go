package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/krono/backend/repository"
	"github.com/krono/backend/usecase/tracker"
)

// WatchdogConfig controls how the stale-tracker sweep runs.
type WatchdogConfig struct {
	Interval  time.Duration
	Threshold time.Duration
}

// HeartbeatWatchdog closes open tasks for users whose client stopped sending
// heartbeats. A task closed this way is marked interrupted, never silently
// extended.
type HeartbeatWatchdog struct {
	tracker  *tracker.UseCase
	profiles repository.ProfileRepository
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      WatchdogConfig
}

func NewHeartbeatWatchdog(
	trackerUC *tracker.UseCase,
	profiles repository.ProfileRepository,
	logger *zap.Logger,
	cfg WatchdogConfig,
) *HeartbeatWatchdog {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &HeartbeatWatchdog{
		tracker:  trackerUC,
		profiles: profiles,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = w.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		w.Sweep(ctx, time.Now())
	})

	return w
}

func (w *HeartbeatWatchdog) Start() {
	if w == nil || w.cron == nil {
		return
	}
	w.cron.Start()
	w.logger.Info("heartbeat watchdog started",
		zap.Duration("interval", w.cfg.Interval),
		zap.Duration("threshold", w.cfg.Threshold))
}

func (w *HeartbeatWatchdog) Stop(ctx context.Context) {
	if w == nil || w.cron == nil {
		return
	}
	stopCtx := w.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	w.logger.Info("heartbeat watchdog stopped")
}

// Sweep expires open tasks belonging to users whose heartbeat is older than the
// threshold. It returns the number of tasks closed.
func (w *HeartbeatWatchdog) Sweep(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-w.cfg.Threshold)
	userIDs, err := w.profiles.ListStale(ctx, cutoff)
	if err != nil {
		w.logger.Error("failed to list stale profiles", zap.Error(err))
		return 0
	}

	expired := 0
	for _, userID := range userIDs {
		task, err := w.tracker.Expire(ctx, userID)
		if err != nil {
			w.logger.Error("failed to expire stale task",
				zap.String("user_id", userID),
				zap.Error(err))
			continue
		}
		if task == nil {
			// stale heartbeat but nothing was being tracked
			continue
		}
		expired++
		w.logger.Info("expired stale task",
			zap.String("user_id", userID),
			zap.String("task_id", task.ID))
	}
	return expired
}
