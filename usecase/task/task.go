// Package task handles plain CRUD on task records: manual entries and user
// edits of history. Tracking transitions live in usecase/tracker and never go
// through here; this path cannot open or reopen a task.
package task

import (
	"context"

	"go.uber.org/zap"

	"github.com/krono/backend/domain"
	"github.com/krono/backend/repository"
	"github.com/krono/backend/usecase"
)

type UseCase struct {
	tasks  repository.TaskRepository
	types  repository.TaskTypeRepository
	buffer usecase.OperationBuffer
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, types repository.TaskTypeRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		types:  types,
		buffer: buffer,
		logger: logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return uc.tasks.List(ctx, filter)
}

func (uc *UseCase) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

// CreateManual records a manual entry. Manual entries are always closed
// intervals; open tasks can only be created by the tracker.
func (uc *UseCase) CreateManual(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	task.IsManualEntry = true

	if err := uc.validate(ctx, task); err != nil {
		return nil, err
	}
	if task.EndTime == nil {
		return nil, domain.NewError(domain.ErrCodeInvalid, "manual entries require an end time")
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationCreate, task) {
			return task, nil
		}
		return nil, err
	}
	return created, nil
}

// UpdateTask applies a user edit to an existing record and flags it as edited.
func (uc *UseCase) UpdateTask(ctx context.Context, userID string, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	existing, err := uc.GetTask(ctx, userID, task.ID)
	if err != nil {
		return nil, err
	}
	// edits never reopen a closed task
	if existing.EndTime != nil && task.EndTime == nil {
		return nil, domain.NewError(domain.ErrCodeInvalid, "cannot reopen a closed task")
	}

	task.UserID = userID
	task.EditedByUser = true
	if err := uc.validate(ctx, task); err != nil {
		return nil, err
	}

	if err := uc.tasks.Update(ctx, task); err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationUpdate, task) {
			return task, nil
		}
		return nil, err
	}
	return task, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, userID, id string) error {
	if _, err := uc.GetTask(ctx, userID, id); err != nil {
		return err
	}
	if err := uc.tasks.Delete(ctx, id); err != nil {
		if err == domain.ErrTaskNotFound {
			return err
		}
		task := &domain.Task{ID: id, UserID: userID}
		if uc.shouldBuffer(ctx, usecase.OperationDelete, task) {
			return nil
		}
		return err
	}
	return nil
}

func (uc *UseCase) validate(ctx context.Context, task *domain.Task) error {
	if task.UserID == "" || task.StartTime.IsZero() {
		return domain.ErrInvalidPayload
	}
	if task.EndTime != nil && !task.EndTime.After(task.StartTime) {
		return domain.NewError(domain.ErrCodeInvalid, "end time must be after start time")
	}
	valid, err := uc.types.IsValid(ctx, task.UserID, task.TaskTypeID)
	if err != nil {
		return err
	}
	if !valid {
		return domain.ErrInvalidTaskType
	}
	return nil
}

func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, task *domain.Task) bool {
	if uc.buffer == nil {
		return false
	}
	if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
		uc.logger.Error("failed to buffer task operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	uc.logger.Warn("task operation buffered", zap.String("operation", operation))
	return true
}
