package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krono/backend/domain"
	"github.com/krono/backend/repository"
)

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository instantiates a Postgres-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool) repository.ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	const query = `
	SELECT user_id, email, export_email, timezone, theme, long_press_seconds, pinned_tasks_visible, last_heartbeat, created_at, updated_at
	FROM profiles
	WHERE user_id = $1
	`
	row := r.pool.QueryRow(ctx, query, userID)

	var profile domain.Profile
	var heartbeat *time.Time

	if err := row.Scan(
		&profile.UserID,
		&profile.Email,
		&profile.ExportEmail,
		&profile.Timezone,
		&profile.Theme,
		&profile.LongPressSeconds,
		&profile.PinnedTasksVisible,
		&heartbeat,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}

	profile.LastHeartbeat = heartbeat
	return &profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	if profile == nil {
		return domain.ErrInvalidPayload
	}
	profile.Normalize()

	const query = `
	INSERT INTO profiles (user_id, email, export_email, timezone, theme, long_press_seconds, pinned_tasks_visible, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()), NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET email = EXCLUDED.email,
		export_email = EXCLUDED.export_email,
		timezone = EXCLUDED.timezone,
		theme = EXCLUDED.theme,
		long_press_seconds = EXCLUDED.long_press_seconds,
		pinned_tasks_visible = EXCLUDED.pinned_tasks_visible,
		updated_at = NOW()
	RETURNING created_at, updated_at
	`

	var createdAt, updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		profile.UserID,
		profile.Email,
		profile.ExportEmail,
		profile.Timezone,
		profile.Theme,
		profile.LongPressSeconds,
		profile.PinnedTasksVisible,
		nullTime(profile.CreatedAt),
	).Scan(&createdAt, &updatedAt); err != nil {
		return err
	}

	profile.CreatedAt = createdAt
	profile.UpdatedAt = updatedAt
	return nil
}

func (r *profileRepository) Touch(ctx context.Context, userID string, heartbeat time.Time) error {
	const query = `UPDATE profiles SET last_heartbeat = $2, updated_at = NOW() WHERE user_id = $1`
	tag, err := r.pool.Exec(ctx, query, userID, heartbeat)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) ListStale(ctx context.Context, olderThan time.Time) ([]string, error) {
	const query = `
	SELECT user_id
	FROM profiles
	WHERE last_heartbeat IS NOT NULL AND last_heartbeat < $1
	`
	rows, err := r.pool.Query(ctx, query, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
