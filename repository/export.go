package repository

import (
	"context"
	"time"

	"github.com/krono/backend/domain"
)

type ScheduledExportRepository interface {
	GetByID(ctx context.Context, id string) (*domain.ScheduledExport, error)
	ListByUser(ctx context.Context, userID string) ([]domain.ScheduledExport, error)
	// ListDue returns active exports whose next_scheduled is at or before now.
	ListDue(ctx context.Context, now time.Time) ([]domain.ScheduledExport, error)
	Create(ctx context.Context, export *domain.ScheduledExport) (*domain.ScheduledExport, error)
	Update(ctx context.Context, export *domain.ScheduledExport) error
	Delete(ctx context.Context, id string) error
}
