package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/famquest-app/famquest-api/internal/models"
)

// RuleRepository persists rules and their violations. Recording a violation
// deducts the penalty (clamped at zero) and appends the ledger entry in the
// same transaction as the violation row.
type RuleRepository struct {
	db *sqlx.DB
}

// NewRuleRepository constructs the repository.
func NewRuleRepository(db *sqlx.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// Create inserts a rule.
func (r *RuleRepository) Create(ctx context.Context, rule *models.Rule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	rule.Active = true

	const query = `
INSERT INTO rules (id, parent_id, label, penalty_points, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		rule.ID, rule.ParentID, rule.Label, rule.PenaltyPoints, rule.Active,
		rule.CreatedAt, rule.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

// FindByID fetches one rule. Returns sql.ErrNoRows when absent.
func (r *RuleRepository) FindByID(ctx context.Context, id string) (*models.Rule, error) {
	const query = `
SELECT id, parent_id, label, penalty_points, active, created_at, updated_at
FROM rules
WHERE id = $1`

	var rule models.Rule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListByParent returns the parent's active rules.
func (r *RuleRepository) ListByParent(ctx context.Context, parentID string) ([]models.Rule, error) {
	const query = `
SELECT id, parent_id, label, penalty_points, active, created_at, updated_at
FROM rules
WHERE parent_id = $1 AND active = true
ORDER BY created_at ASC`

	var rules []models.Rule
	if err := r.db.SelectContext(ctx, &rules, query, parentID); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// Delete deactivates a rule.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE rules SET active = false, updated_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}

// RecordViolation stores the violation, deducts the penalty clamped at zero,
// and appends the ledger entry atomically.
func (r *RuleRepository) RecordViolation(ctx context.Context, violation *models.RuleViolation, penalty int, reason string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin violation transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var balance int
	if err = tx.GetContext(ctx, &balance, `SELECT points FROM children WHERE id = $1 FOR UPDATE`, violation.ChildID); err != nil {
		return fmt.Errorf("lock child balance: %w", err)
	}
	deducted := penalty
	if balance < deducted {
		deducted = balance
	}
	violation.PointsDeducted = deducted

	if deducted > 0 {
		const debitQuery = `UPDATE children SET points = points - $1, updated_at = $2 WHERE id = $3`
		if _, err = tx.ExecContext(ctx, debitQuery, deducted, time.Now().UTC(), violation.ChildID); err != nil {
			return fmt.Errorf("deduct penalty: %w", err)
		}
	}

	if violation.ID == "" {
		violation.ID = uuid.NewString()
	}
	if violation.RecordedAt.IsZero() {
		violation.RecordedAt = time.Now().UTC()
	}
	const insertQuery = `
INSERT INTO rule_violations (id, child_id, rule_id, points_deducted, note, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.ExecContext(ctx, insertQuery,
		violation.ID, violation.ChildID, violation.RuleID,
		violation.PointsDeducted, violation.Note, violation.RecordedAt,
	); err != nil {
		return fmt.Errorf("insert violation: %w", err)
	}

	if err = appendLedgerTx(ctx, tx, models.LedgerEntry{
		ChildID:   violation.ChildID,
		Delta:     -deducted,
		EntryType: models.LedgerEntryViolation,
		Reason:    reason,
	}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit violation: %w", err)
	}
	return nil
}

// ListViolations returns a child's violations newest first.
func (r *RuleRepository) ListViolations(ctx context.Context, childID string) ([]models.RuleViolation, error) {
	const query = `
SELECT id, child_id, rule_id, points_deducted, note, recorded_at
FROM rule_violations
WHERE child_id = $1
ORDER BY recorded_at DESC`

	var violations []models.RuleViolation
	if err := r.db.SelectContext(ctx, &violations, query, childID); err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}
	return violations, nil
}
