package transport

// StartRequest begins tracking, or replaces the open task when used with interrupt.
type StartRequest struct {
	TaskTypeID string `json:"task_type_id"`
	Notes      string `json:"notes"`
}

// ManualTaskRequest creates or updates a task with explicit boundaries.
type ManualTaskRequest struct {
	ID          string `json:"id"`
	TaskTypeID  string `json:"task_type_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Interrupted bool   `json:"interrupted"`
	Notes       string `json:"notes"`
}

type TaskTypeRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	Color    string `json:"color"`
	IsPinned bool   `json:"is_pinned"`
}

// ReorderRequest carries the full desired ordering of the user's task types.
type ReorderRequest struct {
	TaskTypeIDs []string `json:"task_type_ids"`
}

type ProfileUpdateRequest struct {
	Email              string  `json:"email"`
	ExportEmail        string  `json:"email_for_exports"`
	Timezone           string  `json:"timezone"`
	Theme              string  `json:"theme"`
	LongPressSeconds   float64 `json:"long_press_duration"`
	PinnedTasksVisible int     `json:"pinned_tasks_visible"`
}

type ExportRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	EmailTo   string `json:"email_to"`
}

type ScheduledExportRequest struct {
	Frequency string `json:"frequency"`
	EmailTo   string `json:"email_to"`
	IsActive  *bool  `json:"is_active"`
}

type AuthLoginRequest struct {
	UserID string `json:"user_id"`
	TTL    int    `json:"ttl_seconds"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
	TTL       int    `json:"ttl_seconds"`
}
