package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krono/backend/domain"
	"github.com/krono/backend/repository"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type trackerStore struct {
	pool *pgxpool.Pool
}

// NewTrackerStore returns the Postgres unit-of-work for tracking transitions.
// Each unit is a transaction holding a per-user advisory lock, so concurrent
// units for the same user serialize while other users proceed unblocked.
func NewTrackerStore(pool *pgxpool.Pool) repository.TrackerStore {
	return &trackerStore{pool: pool}
}

func (s *trackerStore) Run(ctx context.Context, userID string, fn func(repository.TrackerUnit) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.NewTransientStoreError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// xact-scoped lock keyed by user id; released automatically on commit/rollback.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, userID); err != nil {
		return domain.NewTransientStoreError(err)
	}

	if err := fn(&trackerUnit{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewTransientStoreError(err)
	}
	return nil
}

type trackerUnit struct {
	tx pgx.Tx
}

func (u *trackerUnit) FindOpen(ctx context.Context, userID string) (*domain.Task, error) {
	return findOpenTask(ctx, u.tx, userID)
}

func (u *trackerUnit) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, user_id, task_type_id, start_time, interrupted, is_manual_entry, edited_by_user, notes)
	VALUES ($1, $2, $3, $4, false, false, false, $5)
	RETURNING created_at, updated_at
	`
	if err := u.tx.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.TaskTypeID,
		task.StartTime,
		task.Notes,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, domain.NewTransientStoreError(err)
	}
	return task, nil
}

func (u *trackerUnit) Close(ctx context.Context, taskID string, end time.Time, interrupted bool) (*domain.Task, error) {
	const query = `
	UPDATE tasks
	SET end_time = $2,
		interrupted = $3,
		updated_at = NOW()
	WHERE id = $1 AND end_time IS NULL
	RETURNING ` + taskColumns + `
	`
	task, err := scanTask(u.tx.QueryRow(ctx, query, taskID, end, interrupted))
	if err != nil {
		// already closed rows are not matched: closing twice is an error, not a no-op success
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.ErrNoActiveTask
		}
		return nil, err
	}
	return task, nil
}

// findOpenTask returns the user's open task or nil when idle.
func findOpenTask(ctx context.Context, q querier, userID string) (*domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1 AND end_time IS NULL
	`
	task, err := scanTask(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}
