package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krono/backend/domain"
	"github.com/krono/backend/repository"
)

const taskTypeColumns = `id, user_id, name, emoji, color, is_pinned, is_archived, sort_order, created_at, updated_at`

type taskTypeRepository struct {
	pool *pgxpool.Pool
}

// NewTaskTypeRepository returns a Postgres-backed TaskTypeRepository.
func NewTaskTypeRepository(pool *pgxpool.Pool) repository.TaskTypeRepository {
	return &taskTypeRepository{pool: pool}
}

func (r *taskTypeRepository) GetByID(ctx context.Context, id string) (*domain.TaskType, error) {
	const query = `
	SELECT ` + taskTypeColumns + `
	FROM task_types
	WHERE id = $1
	`
	return scanTaskType(r.pool.QueryRow(ctx, query, id))
}

func (r *taskTypeRepository) List(ctx context.Context, filter repository.TaskTypeFilter) ([]domain.TaskType, error) {
	const query = `
	SELECT ` + taskTypeColumns + `
	FROM task_types
	WHERE user_id = $1
	  AND ($2::boolean OR NOT is_archived)
	  AND (NOT $3::boolean OR is_pinned)
	ORDER BY sort_order, name
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, filter.ShowArchived, filter.PinnedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []domain.TaskType
	for rows.Next() {
		tt, err := scanTaskType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *tt)
	}
	return types, rows.Err()
}

func (r *taskTypeRepository) Create(ctx context.Context, taskType *domain.TaskType) (*domain.TaskType, error) {
	if taskType == nil {
		return nil, domain.ErrInvalidPayload
	}
	if taskType.ID == "" {
		taskType.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO task_types (id, user_id, name, emoji, color, is_pinned, is_archived, sort_order)
	VALUES ($1, $2, $3, $4, $5, $6, false, $7)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		taskType.ID,
		taskType.UserID,
		taskType.Name,
		taskType.Emoji,
		taskType.Color,
		taskType.IsPinned,
		taskType.SortOrder,
	).Scan(&taskType.CreatedAt, &taskType.UpdatedAt); err != nil {
		return nil, err
	}
	return taskType, nil
}

func (r *taskTypeRepository) Update(ctx context.Context, taskType *domain.TaskType) error {
	if taskType == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE task_types
	SET name = $2,
		emoji = $3,
		color = $4,
		is_pinned = $5,
		sort_order = $6,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		taskType.ID,
		taskType.Name,
		taskType.Emoji,
		taskType.Color,
		taskType.IsPinned,
		taskType.SortOrder,
	).Scan(&taskType.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskTypeNotFound
		}
		return err
	}
	return nil
}

func (r *taskTypeRepository) SetArchived(ctx context.Context, id string, archived bool) (*domain.TaskType, error) {
	const query = `
	UPDATE task_types
	SET is_archived = $2,
		updated_at = NOW()
	WHERE id = $1
	RETURNING ` + taskTypeColumns + `
	`
	return scanTaskType(r.pool.QueryRow(ctx, query, id, archived))
}

func (r *taskTypeRepository) SetSortOrder(ctx context.Context, id string, sortOrder int) error {
	const query = `UPDATE task_types SET sort_order = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, sortOrder)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskTypeNotFound
	}
	return nil
}

func (r *taskTypeRepository) IsValid(ctx context.Context, userID, typeID string) (bool, error) {
	const query = `
	SELECT EXISTS (
		SELECT 1 FROM task_types
		WHERE id = $1 AND user_id = $2 AND NOT is_archived
	)
	`
	var valid bool
	if err := r.pool.QueryRow(ctx, query, typeID, userID).Scan(&valid); err != nil {
		return false, err
	}
	return valid, nil
}
