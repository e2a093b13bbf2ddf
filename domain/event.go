package domain

import (
	"encoding/json"
	"time"
)

// Tracking event names.
const (
	EventTaskStarted     = "task.started"
	EventTaskStopped     = "task.stopped"
	EventTaskInterrupted = "task.interrupted"
	EventTaskExpired     = "task.expired"
	EventTaskEdited      = "task.edited"
)

// TaskEvent records a transition of a user's tracking state. The event log
// is append-only and written outside the tracking unit, best-effort.
type TaskEvent struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	TaskID    string          `json:"task_id"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
