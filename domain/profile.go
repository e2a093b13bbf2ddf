package domain

import "time"

// Profile holds per-user settings and the tracking heartbeat.
type Profile struct {
	UserID             string     `json:"user_id"`
	Email              string     `json:"email,omitempty"`
	ExportEmail        string     `json:"email_for_exports,omitempty"`
	Timezone           string     `json:"timezone"`
	Theme              string     `json:"theme"`
	LongPressSeconds   float64    `json:"long_press_duration"`
	PinnedTasksVisible int        `json:"pinned_tasks_visible"`
	LastHeartbeat      *time.Time `json:"last_heartbeat,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (p *Profile) applyDefaults() {
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	if p.Theme == "" {
		p.Theme = "system"
	}
	if p.LongPressSeconds == 0 {
		p.LongPressSeconds = 1.0
	}
	if p.PinnedTasksVisible == 0 {
		p.PinnedTasksVisible = 4
	}
}

// Normalize fills zero-valued settings with their defaults.
func (p *Profile) Normalize() {
	if p == nil {
		return
	}
	p.applyDefaults()
}

// Validate checks the bounds the settings UI relies on.
func (p *Profile) Validate() error {
	if p == nil {
		return ErrInvalidPayload
	}
	if p.LongPressSeconds != 0 && (p.LongPressSeconds < 0.5 || p.LongPressSeconds > 5.0) {
		return NewError(ErrCodeInvalid, "long press duration must be between 0.5 and 5.0 seconds")
	}
	if p.PinnedTasksVisible != 0 && (p.PinnedTasksVisible < 1 || p.PinnedTasksVisible > 12) {
		return NewError(ErrCodeInvalid, "pinned tasks visible must be between 1 and 12")
	}
	return nil
}
