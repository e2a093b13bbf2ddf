package usecase

import (
	"context"

	"github.com/krono/backend/domain"
)

// OperationBuffer abstracts the offline buffer so use cases stay storage-agnostic.
// Only plain CRUD writes may be buffered; tracking transitions never are, since
// their atomicity contract cannot be honored by replaying later.
type OperationBuffer interface {
	BufferProfile(ctx context.Context, operation string, profile *domain.Profile) error
	BufferTask(ctx context.Context, operation string, task *domain.Task) error
}

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)
