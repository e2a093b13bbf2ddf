package domain

import "time"

// Scheduled export frequencies.
const (
	ExportDaily   = "daily"
	ExportWeekly  = "weekly"
	ExportMonthly = "monthly"
)

// ScheduledExport describes a recurring CSV email delivery.
type ScheduledExport struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Frequency     string     `json:"frequency"`
	EmailTo       string     `json:"email_to"`
	IsActive      bool       `json:"is_active"`
	LastSent      *time.Time `json:"last_sent,omitempty"`
	NextScheduled time.Time  `json:"next_scheduled"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Advance moves the schedule past the reference time by whole periods.
func (e *ScheduledExport) Advance(reference time.Time) {
	if e == nil {
		return
	}
	if e.NextScheduled.IsZero() {
		e.NextScheduled = reference
	}
	for !e.NextScheduled.After(reference) {
		switch e.Frequency {
		case ExportWeekly:
			e.NextScheduled = e.NextScheduled.AddDate(0, 0, 7)
		case ExportMonthly:
			e.NextScheduled = e.NextScheduled.AddDate(0, 1, 0)
		default:
			e.NextScheduled = e.NextScheduled.AddDate(0, 0, 1)
		}
	}
}

// Window returns the date range the next delivery should cover.
func (e *ScheduledExport) Window(reference time.Time) (time.Time, time.Time) {
	switch e.Frequency {
	case ExportWeekly:
		return reference.AddDate(0, 0, -7), reference
	case ExportMonthly:
		return reference.AddDate(0, -1, 0), reference
	default:
		return reference.AddDate(0, 0, -1), reference
	}
}
