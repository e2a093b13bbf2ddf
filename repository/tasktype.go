package repository

import (
	"context"

	"github.com/krono/backend/domain"
)

type TaskTypeFilter struct {
	UserID       string
	ShowArchived bool
	PinnedOnly   bool
}

type TaskTypeRepository interface {
	GetByID(ctx context.Context, id string) (*domain.TaskType, error)
	List(ctx context.Context, filter TaskTypeFilter) ([]domain.TaskType, error)
	Create(ctx context.Context, taskType *domain.TaskType) (*domain.TaskType, error)
	Update(ctx context.Context, taskType *domain.TaskType) error
	SetArchived(ctx context.Context, id string, archived bool) (*domain.TaskType, error)
	SetSortOrder(ctx context.Context, id string, sortOrder int) error
	// IsValid reports whether the type exists, belongs to the user, and is not archived.
	IsValid(ctx context.Context, userID, typeID string) (bool, error)
}
