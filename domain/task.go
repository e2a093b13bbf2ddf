package domain

import "time"

// Task represents one tracked time interval spent on a task type.
// An absent EndTime means the task is still being tracked.
type Task struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	TaskTypeID    string     `json:"task_type_id"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Interrupted   bool       `json:"interrupted"`
	IsManualEntry bool       `json:"is_manual_entry"`
	EditedByUser  bool       `json:"edited_by_user"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (t *Task) IsOpen() bool {
	return t != nil && t.EndTime == nil
}

// Duration returns the tracked duration. Open tasks are measured against
// the reference time, closed tasks against their stored end time.
func (t *Task) Duration(reference time.Time) time.Duration {
	if t == nil {
		return 0
	}
	if t.EndTime != nil {
		return t.EndTime.Sub(t.StartTime)
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return reference.Sub(t.StartTime)
}

// TaskSwitch is the result of an interrupt: the task that was closed
// (nil when the user was idle) and the task that was opened in its place.
type TaskSwitch struct {
	Interrupted *Task `json:"interrupted_task"`
	Started     *Task `json:"new_task"`
}
