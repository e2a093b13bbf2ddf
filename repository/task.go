package repository

import (
	"context"
	"time"

	"github.com/krono/backend/domain"
)

type TaskFilter struct {
	UserID      string
	TaskTypeID  string
	From        time.Time
	Until       time.Time
	Interrupted *bool
	ClosedOnly  bool
	Limit       int
	Offset      int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
	// FindOpen returns the user's open task, or nil when the user is idle.
	FindOpen(ctx context.Context, userID string) (*domain.Task, error)
}
