package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krono/backend/domain"
	"github.com/krono/backend/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a Postgres-backed append-only task event log.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Append(ctx context.Context, event domain.TaskEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO task_events (id, user_id, task_id, name, payload)
	VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.UserID,
		event.TaskID,
		event.Name,
		[]byte(event.Payload),
	)
	return err
}

func (r *eventRepository) List(ctx context.Context, filter repository.EventFilter) ([]domain.TaskEvent, error) {
	const query = `
	SELECT id, user_id, task_id, name, payload, created_at
	FROM task_events
	WHERE ($1 = '' OR user_id = $1)
	  AND ($2 = '' OR task_id = $2)
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, filter.TaskID, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TaskEvent
	for rows.Next() {
		var event domain.TaskEvent
		var payload []byte
		if err := rows.Scan(&event.ID, &event.UserID, &event.TaskID, &event.Name, &payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.Payload = payload
		events = append(events, event)
	}
	return events, rows.Err()
}
