package repository

import (
	"context"
	"time"

	"github.com/krono/backend/domain"
)

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
	Touch(ctx context.Context, userID string, heartbeat time.Time) error
	// ListStale returns user ids whose last heartbeat is older than the cutoff.
	ListStale(ctx context.Context, olderThan time.Time) ([]string, error)
}
