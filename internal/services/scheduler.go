package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/krono/backend/repository"
	"github.com/krono/backend/usecase/export"
)

// SchedulerConfig controls the recurring export delivery loop.
type SchedulerConfig struct {
	Interval time.Duration
}

// ExportScheduler delivers recurring CSV exports by email.
type ExportScheduler struct {
	exports  repository.ScheduledExportRepository
	exporter *export.UseCase
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      SchedulerConfig
}

func NewExportScheduler(
	exports repository.ScheduledExportRepository,
	exporter *export.UseCase,
	logger *zap.Logger,
	cfg SchedulerConfig,
) *ExportScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &ExportScheduler{
		exports:  exports,
		exporter: exporter,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(),
	}

	if _, err := s.cron.AddFunc(every(cfg.Interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		s.RunDue(ctx, time.Now())
	}); err != nil {
		logger.Error("failed to register export delivery schedule", zap.Error(err))
	}

	return s
}

// every renders an interval as a cron @every spec without losing resolution
// below a minute.
func every(interval time.Duration) string {
	return "@every " + interval.String()
}

func (s *ExportScheduler) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("export scheduler started", zap.Duration("interval", s.cfg.Interval))
}

func (s *ExportScheduler) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("export scheduler stopped")
}

// RunDue delivers every scheduled export whose next run is at or before now.
// It returns the number of successful deliveries.
func (s *ExportScheduler) RunDue(ctx context.Context, now time.Time) int {
	due, err := s.exports.ListDue(ctx, now)
	if err != nil {
		s.logger.Error("failed to list due exports", zap.Error(err))
		return 0
	}

	delivered := 0
	for i := range due {
		item := due[i]
		start, end := item.Window(now)
		if err := s.exporter.EmailCSV(ctx, item.UserID, item.EmailTo, start, end); err != nil {
			s.logger.Error("scheduled export delivery failed",
				zap.String("export_id", item.ID),
				zap.String("user_id", item.UserID),
				zap.Error(err))
			continue
		}

		sent := now
		item.LastSent = &sent
		item.Advance(now)
		if err := s.exports.Update(ctx, &item); err != nil {
			s.logger.Error("failed to advance export schedule",
				zap.String("export_id", item.ID),
				zap.Error(err))
			continue
		}

		delivered++
		s.logger.Info("scheduled export delivered",
			zap.String("export_id", item.ID),
			zap.String("user_id", item.UserID),
			zap.Time("next_scheduled", item.NextScheduled))
	}
	return delivered
}
