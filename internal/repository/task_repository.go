package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/famquest-app/famquest-api/internal/models"
)

// TaskRepository persists the parent-defined task catalog.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs the repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a catalog task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	task.Active = true

	const query = `
INSERT INTO tasks (id, parent_id, label, points, icon, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query,
		task.ID, task.ParentID, task.Label, task.Points, task.Icon, task.Active,
		task.CreatedAt, task.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// FindByID fetches one catalog task. Returns sql.ErrNoRows when absent.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	const query = `
SELECT id, parent_id, label, points, icon, active, created_at, updated_at
FROM tasks
WHERE id = $1`

	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByParent returns the parent's catalog tasks.
func (r *TaskRepository) ListByParent(ctx context.Context, parentID string, activeOnly bool) ([]models.Task, error) {
	query := `
SELECT id, parent_id, label, points, icon, active, created_at, updated_at
FROM tasks
WHERE parent_id = $1`
	if activeOnly {
		query += " AND active = true"
	}
	query += " ORDER BY created_at ASC"

	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, parentID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Update persists catalog changes.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()

	const query = `
UPDATE tasks SET label = $1, points = $2, icon = $3, active = $4, updated_at = $5 WHERE id = $6`
	if _, err := r.db.ExecContext(ctx, query,
		task.Label, task.Points, task.Icon, task.Active, task.UpdatedAt, task.ID,
	); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// Delete removes a catalog task.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
