package models

import "time"

// Task is a parent-defined catalog task children can complete for points.
type Task struct {
	ID        string    `db:"id" json:"id"`
	ParentID  string    `db:"parent_id" json:"parent_id"`
	Label     string    `db:"label" json:"label"`
	Points    int       `db:"points" json:"points"`
	Icon      string    `db:"icon" json:"icon"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TaskCompletion records that a child completed a task on a given day.
// At most one completion exists per (child, task, due date); the table
// carries a UNIQUE constraint on that triple.
type TaskCompletion struct {
	ID            string    `db:"id" json:"id"`
	ChildID       string    `db:"child_id" json:"child_id"`
	TaskID        string    `db:"task_id" json:"task_id"`
	DueDate       time.Time `db:"due_date" json:"due_date"`
	CompletedAt   time.Time `db:"completed_at" json:"completed_at"`
	PointsAwarded int       `db:"points_awarded" json:"points_awarded"`
}

// CreateTaskRequest defines a new catalog task.
type CreateTaskRequest struct {
	Label  string `json:"label" validate:"required"`
	Points int    `json:"points" validate:"required,gt=0"`
	Icon   string `json:"icon"`
}

// UpdateTaskRequest mutates a catalog task.
type UpdateTaskRequest struct {
	Label  *string `json:"label,omitempty"`
	Points *int    `json:"points,omitempty" validate:"omitempty,gt=0"`
	Icon   *string `json:"icon,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// CompleteTaskRequest marks a task complete for a day. DueDate defaults to
// today when omitted.
type CompleteTaskRequest struct {
	DueDate string `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}
