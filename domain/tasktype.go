package domain

import "time"

// TaskType is a user-defined category that tasks belong to.
// Types are never hard-deleted while tasks reference them; they are archived.
type TaskType struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Emoji      string    `json:"emoji,omitempty"`
	Color      string    `json:"color,omitempty"`
	IsPinned   bool      `json:"is_pinned"`
	IsArchived bool      `json:"is_archived"`
	SortOrder  int       `json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsTrackable reports whether new tasks may reference this type.
func (t *TaskType) IsTrackable() bool {
	return t != nil && !t.IsArchived
}

// DefaultTaskTypes are provisioned for every new user.
var DefaultTaskTypes = []TaskType{
	{Name: "Deep Work", Emoji: "💻", Color: "#3A8E61", IsPinned: true, SortOrder: 0},
	{Name: "Email", Emoji: "📧", Color: "#7289DA", IsPinned: true, SortOrder: 1},
	{Name: "Meeting", Emoji: "🤝", Color: "#8B7D5A", IsPinned: true, SortOrder: 2},
	{Name: "Break", Emoji: "🍔", Color: "#B35A5A", IsPinned: true, SortOrder: 3},
	{Name: "Call", Emoji: "📞", Color: "#9B59B6", SortOrder: 4},
	{Name: "Admin", Emoji: "📋", Color: "#95A5A6", SortOrder: 5},
	{Name: "Other", Emoji: "📊", Color: "#7F8C8D", SortOrder: 6},
}
