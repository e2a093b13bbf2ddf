package repository

import (
	"context"

	"github.com/krono/backend/domain"
)

type EventFilter struct {
	UserID string
	TaskID string
	Limit  int
	Offset int
}

// EventRepository is the append-only task event log.
type EventRepository interface {
	Append(ctx context.Context, event domain.TaskEvent) error
	List(ctx context.Context, filter EventFilter) ([]domain.TaskEvent, error)
}
