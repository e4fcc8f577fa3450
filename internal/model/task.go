package model

import "time"

// DateLayout is the wire format for task due dates. Due dates are calendar
// dates, not instants, so they travel as "YYYY-MM-DD" strings.
const DateLayout = "2006-01-02"

// Task mirrors the `tasks` table. Description and DueDate are nullable
// columns; nil means absent. A task is only ever visible to the user whose
// id matches UserID.
type Task struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	DueDate     *string   `json:"due_date"` // "YYYY-MM-DD" or null
	IsImportant bool      `json:"is_important"`
	IsCompleted bool      `json:"is_completed"`
	UserID      uint64    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
