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

const exportColumns = `id, user_id, frequency, email_to, is_active, last_sent, next_scheduled, created_at, updated_at`

type scheduledExportRepository struct {
	pool *pgxpool.Pool
}

// NewScheduledExportRepository creates a Postgres-backed ScheduledExportRepository.
func NewScheduledExportRepository(pool *pgxpool.Pool) repository.ScheduledExportRepository {
	return &scheduledExportRepository{pool: pool}
}

func scanExport(row rowScanner) (*domain.ScheduledExport, error) {
	var export domain.ScheduledExport
	var lastSent *time.Time

	if err := row.Scan(
		&export.ID,
		&export.UserID,
		&export.Frequency,
		&export.EmailTo,
		&export.IsActive,
		&lastSent,
		&export.NextScheduled,
		&export.CreatedAt,
		&export.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExportNotFound
		}
		return nil, err
	}

	export.LastSent = lastSent
	return &export, nil
}

func (r *scheduledExportRepository) GetByID(ctx context.Context, id string) (*domain.ScheduledExport, error) {
	const query = `SELECT ` + exportColumns + ` FROM scheduled_exports WHERE id = $1`
	return scanExport(r.pool.QueryRow(ctx, query, id))
}

func (r *scheduledExportRepository) ListByUser(ctx context.Context, userID string) ([]domain.ScheduledExport, error) {
	const query = `
	SELECT ` + exportColumns + `
	FROM scheduled_exports
	WHERE user_id = $1
	ORDER BY created_at
	`
	return r.list(ctx, query, userID)
}

func (r *scheduledExportRepository) ListDue(ctx context.Context, now time.Time) ([]domain.ScheduledExport, error) {
	const query = `
	SELECT ` + exportColumns + `
	FROM scheduled_exports
	WHERE is_active AND next_scheduled <= $1
	ORDER BY next_scheduled
	`
	return r.list(ctx, query, now)
}

func (r *scheduledExportRepository) list(ctx context.Context, query string, arg interface{}) ([]domain.ScheduledExport, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []domain.ScheduledExport
	for rows.Next() {
		export, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		exports = append(exports, *export)
	}
	return exports, rows.Err()
}

func (r *scheduledExportRepository) Create(ctx context.Context, export *domain.ScheduledExport) (*domain.ScheduledExport, error) {
	if export == nil {
		return nil, domain.ErrInvalidPayload
	}
	if export.ID == "" {
		export.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO scheduled_exports (id, user_id, frequency, email_to, is_active, next_scheduled)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		export.ID,
		export.UserID,
		export.Frequency,
		export.EmailTo,
		export.IsActive,
		export.NextScheduled,
	).Scan(&export.CreatedAt, &export.UpdatedAt); err != nil {
		return nil, err
	}
	return export, nil
}

func (r *scheduledExportRepository) Update(ctx context.Context, export *domain.ScheduledExport) error {
	if export == nil {
		return domain.ErrInvalidPayload
	}

	var lastSent interface{}
	if export.LastSent != nil {
		lastSent = *export.LastSent
	}

	const query = `
	UPDATE scheduled_exports
	SET frequency = $2,
		email_to = $3,
		is_active = $4,
		last_sent = $5,
		next_scheduled = $6,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		export.ID,
		export.Frequency,
		export.EmailTo,
		export.IsActive,
		lastSent,
		export.NextScheduled,
	).Scan(&export.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrExportNotFound
		}
		return err
	}
	return nil
}

func (r *scheduledExportRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM scheduled_exports WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExportNotFound
	}
	return nil
}
