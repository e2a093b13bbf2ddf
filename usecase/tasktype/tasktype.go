// Package tasktype manages the per-user catalog of categories. Deleting is a
// soft archive so historical tasks keep a valid reference.
package tasktype

import (
	"context"

	"go.uber.org/zap"

	"github.com/krono/backend/domain"
	"github.com/krono/backend/repository"
)

type UseCase struct {
	types    repository.TaskTypeRepository
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

func New(types repository.TaskTypeRepository, profiles repository.ProfileRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		types:    types,
		profiles: profiles,
		logger:   logger,
	}
}

func (uc *UseCase) List(ctx context.Context, filter repository.TaskTypeFilter) ([]domain.TaskType, error) {
	return uc.types.List(ctx, filter)
}

func (uc *UseCase) Get(ctx context.Context, userID, id string) (*domain.TaskType, error) {
	tt, err := uc.types.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tt.UserID != userID {
		return nil, domain.ErrTaskTypeNotFound
	}
	return tt, nil
}

func (uc *UseCase) Create(ctx context.Context, taskType *domain.TaskType) (*domain.TaskType, error) {
	if taskType == nil || taskType.Name == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "task type name is required")
	}
	return uc.types.Create(ctx, taskType)
}

func (uc *UseCase) Update(ctx context.Context, userID string, taskType *domain.TaskType) (*domain.TaskType, error) {
	if taskType == nil || taskType.Name == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "task type name is required")
	}
	if _, err := uc.Get(ctx, userID, taskType.ID); err != nil {
		return nil, err
	}
	taskType.UserID = userID
	if err := uc.types.Update(ctx, taskType); err != nil {
		return nil, err
	}
	return taskType, nil
}

// Archive soft-deletes a type. Existing tasks keep referencing it; it just
// stops being valid for new tracking.
func (uc *UseCase) Archive(ctx context.Context, userID, id string) (*domain.TaskType, error) {
	if _, err := uc.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return uc.types.SetArchived(ctx, id, true)
}

func (uc *UseCase) Unarchive(ctx context.Context, userID, id string) (*domain.TaskType, error) {
	if _, err := uc.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return uc.types.SetArchived(ctx, id, false)
}

// TogglePin flips the pinned flag.
func (uc *UseCase) TogglePin(ctx context.Context, userID, id string) (*domain.TaskType, error) {
	tt, err := uc.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	tt.IsPinned = !tt.IsPinned
	if err := uc.types.Update(ctx, tt); err != nil {
		return nil, err
	}
	return tt, nil
}

// Reorder applies the position of each id in the list as its sort order.
// Every id must belong to the user.
func (uc *UseCase) Reorder(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return domain.NewError(domain.ErrCodeInvalid, "task type ids are required")
	}

	owned, err := uc.types.List(ctx, repository.TaskTypeFilter{UserID: userID, ShowArchived: true})
	if err != nil {
		return err
	}
	ownedIDs := make(map[string]struct{}, len(owned))
	for _, tt := range owned {
		ownedIDs[tt.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := ownedIDs[id]; !ok {
			return domain.NewError(domain.ErrCodeInvalid, "invalid task type ids")
		}
	}

	for index, id := range ids {
		if err := uc.types.SetSortOrder(ctx, id, index); err != nil {
			return err
		}
	}
	return nil
}

// ProvisionDefaults creates the default catalog and profile for a new user.
// Called explicitly by the registration collaborator; idempotent for users
// that already have types.
func (uc *UseCase) ProvisionDefaults(ctx context.Context, userID string) ([]domain.TaskType, error) {
	existing, err := uc.types.List(ctx, repository.TaskTypeFilter{UserID: userID, ShowArchived: true})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	if uc.profiles != nil {
		profile := &domain.Profile{UserID: userID}
		if err := uc.profiles.Upsert(ctx, profile); err != nil {
			uc.logger.Warn("failed to provision profile", zap.String("user_id", userID), zap.Error(err))
		}
	}

	created := make([]domain.TaskType, 0, len(domain.DefaultTaskTypes))
	for _, preset := range domain.DefaultTaskTypes {
		tt := preset
		tt.UserID = userID
		saved, err := uc.types.Create(ctx, &tt)
		if err != nil {
			return nil, err
		}
		created = append(created, *saved)
	}

	uc.logger.Info("provisioned default task types", zap.String("user_id", userID), zap.Int("count", len(created)))
	return created, nil
}
