package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/krono/backend/domain"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var end *time.Time

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.TaskTypeID,
		&task.StartTime,
		&end,
		&task.Interrupted,
		&task.IsManualEntry,
		&task.EditedByUser,
		&task.Notes,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.EndTime = end
	return &task, nil
}

func scanTaskType(row rowScanner) (*domain.TaskType, error) {
	var tt domain.TaskType
	if err := row.Scan(
		&tt.ID,
		&tt.UserID,
		&tt.Name,
		&tt.Emoji,
		&tt.Color,
		&tt.IsPinned,
		&tt.IsArchived,
		&tt.SortOrder,
		&tt.CreatedAt,
		&tt.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskTypeNotFound
		}
		return nil, err
	}
	return &tt, nil
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 500
	}
	return limit
}
