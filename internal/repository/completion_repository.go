package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

// CompletionRepository persists task completions. Completing and
// uncompleting a task mutate the child's balance and append a ledger entry
// in the same transaction.
type CompletionRepository struct {
	db *sqlx.DB
}

// NewCompletionRepository constructs the repository.
func NewCompletionRepository(db *sqlx.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// ListWindow returns the child's (due date, completed at) pairs since the
// given cutoff, ordered descending by completion time.
func (r *CompletionRepository) ListWindow(ctx context.Context, childID string, since time.Time) ([]models.CompletionDay, error) {
	const query = `
SELECT due_date, completed_at
FROM task_completions
WHERE child_id = $1 AND completed_at >= $2
ORDER BY completed_at DESC`

	var days []models.CompletionDay
	if err := r.db.SelectContext(ctx, &days, query, childID, since); err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return days, nil
}

// ListForDay returns the completions recorded for one due date.
func (r *CompletionRepository) ListForDay(ctx context.Context, childID string, dueDate time.Time) ([]models.TaskCompletion, error) {
	const query = `
SELECT id, child_id, task_id, due_date, completed_at, points_awarded
FROM task_completions
WHERE child_id = $1 AND due_date = $2
ORDER BY completed_at ASC`

	var completions []models.TaskCompletion
	if err := r.db.SelectContext(ctx, &completions, query, childID, dueDate); err != nil {
		return nil, fmt.Errorf("list day completions: %w", err)
	}
	return completions, nil
}

// Complete records a completion and credits its points atomically. A second
// completion for the same (child, task, due date) trips the UNIQUE
// constraint and is rejected as a duplicate.
func (r *CompletionRepository) Complete(ctx context.Context, completion *models.TaskCompletion, reason string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin completion transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if completion.ID == "" {
		completion.ID = uuid.NewString()
	}
	if completion.CompletedAt.IsZero() {
		completion.CompletedAt = time.Now().UTC()
	}

	const insertQuery = `
INSERT INTO task_completions (id, child_id, task_id, due_date, completed_at, points_awarded)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.ExecContext(ctx, insertQuery,
		completion.ID, completion.ChildID, completion.TaskID,
		completion.DueDate, completion.CompletedAt, completion.PointsAwarded,
	); err != nil {
		if isUniqueViolation(err) {
			err = appErrors.ErrDuplicateCompletion
			return err
		}
		return fmt.Errorf("insert completion: %w", err)
	}

	const creditQuery = `UPDATE children SET points = points + $1, updated_at = $2 WHERE id = $3`
	if _, err = tx.ExecContext(ctx, creditQuery, completion.PointsAwarded, time.Now().UTC(), completion.ChildID); err != nil {
		return fmt.Errorf("credit completion points: %w", err)
	}

	if err = appendLedgerTx(ctx, tx, models.LedgerEntry{
		ChildID:   completion.ChildID,
		Delta:     completion.PointsAwarded,
		EntryType: models.LedgerEntryTask,
		Reason:    reason,
		TaskID:    &completion.TaskID,
	}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit completion: %w", err)
	}
	return nil
}

// Uncomplete removes a completion and reverses its points. The reversal
// clamps at zero so an intervening spend cannot drive the balance negative.
func (r *CompletionRepository) Uncomplete(ctx context.Context, childID, taskID string, dueDate time.Time, reason string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin uncomplete transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var awarded int
	const deleteQuery = `
DELETE FROM task_completions
WHERE child_id = $1 AND task_id = $2 AND due_date = $3
RETURNING points_awarded`
	if err = tx.GetContext(ctx, &awarded, deleteQuery, childID, taskID, dueDate); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "completion not found")
			return err
		}
		return fmt.Errorf("delete completion: %w", err)
	}

	// Lock the row so the clamped deduction and the ledger delta agree.
	var balance int
	if err = tx.GetContext(ctx, &balance, `SELECT points FROM children WHERE id = $1 FOR UPDATE`, childID); err != nil {
		return fmt.Errorf("lock child balance: %w", err)
	}
	deducted := awarded
	if balance < deducted {
		deducted = balance
	}

	const debitQuery = `UPDATE children SET points = points - $1, updated_at = $2 WHERE id = $3`
	if _, err = tx.ExecContext(ctx, debitQuery, deducted, time.Now().UTC(), childID); err != nil {
		return fmt.Errorf("reverse completion points: %w", err)
	}

	if err = appendLedgerTx(ctx, tx, models.LedgerEntry{
		ChildID:   childID,
		Delta:     -deducted,
		EntryType: models.LedgerEntryTask,
		Reason:    reason,
		TaskID:    &taskID,
	}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit uncomplete: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
