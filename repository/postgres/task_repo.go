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

const taskColumns = `id, user_id, task_type_id, start_time, end_time, interrupted, is_manual_entry, edited_by_user, notes, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE ($1 = '' OR user_id = $1)
	  AND ($2 = '' OR task_type_id = $2)
	  AND ($3::timestamptz IS NULL OR start_time >= $3)
	  AND ($4::timestamptz IS NULL OR start_time < $4)
	  AND ($5::boolean IS NULL OR interrupted = $5)
	  AND (NOT $6::boolean OR end_time IS NOT NULL)
	ORDER BY start_time DESC
	LIMIT $7 OFFSET $8
	`
	rows, err := r.pool.Query(ctx, query,
		filter.UserID,
		filter.TaskTypeID,
		nullTime(filter.From),
		nullTime(filter.Until),
		filter.Interrupted,
		filter.ClosedOnly,
		clampLimit(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, user_id, task_type_id, start_time, end_time, interrupted, is_manual_entry, edited_by_user, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at, updated_at
	`

	var end interface{}
	if task.EndTime != nil {
		end = *task.EndTime
	}

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.TaskTypeID,
		task.StartTime,
		end,
		task.Interrupted,
		task.IsManualEntry,
		task.EditedByUser,
		task.Notes,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET task_type_id = $2,
		start_time = $3,
		end_time = $4,
		interrupted = $5,
		edited_by_user = $6,
		notes = $7,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	var end interface{}
	if task.EndTime != nil {
		end = *task.EndTime
	}

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.TaskTypeID,
		task.StartTime,
		end,
		task.Interrupted,
		task.EditedByUser,
		task.Notes,
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}

	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) FindOpen(ctx context.Context, userID string) (*domain.Task, error) {
	task, err := findOpenTask(ctx, r.pool, userID)
	if err != nil {
		return nil, err
	}
	return task, nil
}
