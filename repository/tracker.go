package repository

import (
	"context"
	"time"

	"github.com/krono/backend/domain"
)

// TrackerUnit exposes the tracking mutations available inside one atomic
// unit of work. FindOpen followed by Close/Create is isolated from concurrent
// units for the same user: no lost updates, no duplicate opens.
type TrackerUnit interface {
	FindOpen(ctx context.Context, userID string) (*domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Close(ctx context.Context, taskID string, end time.Time, interrupted bool) (*domain.Task, error)
}

// TrackerStore runs fn inside a per-user atomic unit. Units for the same user
// serialize; units for different users proceed in parallel. A unit that cannot
// be acquired or completed surfaces as a retryable UNAVAILABLE domain error.
type TrackerStore interface {
	Run(ctx context.Context, userID string, fn func(TrackerUnit) error) error
}
