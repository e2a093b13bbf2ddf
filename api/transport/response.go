package transport

import (
	"encoding/json"
	"time"

	"github.com/krono/backend/domain"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// TaskView decorates a task with its duration at render time.
type TaskView struct {
	domain.Task
	DurationSeconds int64 `json:"duration_seconds"`
}

// NewTaskView builds a view measuring open tasks against now.
func NewTaskView(task *domain.Task, now time.Time) *TaskView {
	if task == nil {
		return nil
	}
	return &TaskView{
		Task:            *task,
		DurationSeconds: int64(task.Duration(now).Seconds()),
	}
}

// NewTaskViews maps a slice of tasks to views.
func NewTaskViews(tasks []domain.Task, now time.Time) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		views = append(views, *NewTaskView(&tasks[i], now))
	}
	return views
}

// TaskSwitchView is the interrupt response: the closed task and its replacement.
type TaskSwitchView struct {
	Interrupted *TaskView `json:"interrupted_task"`
	Started     *TaskView `json:"new_task"`
}

func NewTaskSwitchView(sw *domain.TaskSwitch, now time.Time) *TaskSwitchView {
	if sw == nil {
		return nil
	}
	return &TaskSwitchView{
		Interrupted: NewTaskView(sw.Interrupted, now),
		Started:     NewTaskView(sw.Started, now),
	}
}
