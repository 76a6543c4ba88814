package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/famquest-app/famquest-api/internal/models"
)

// PointsRepository mutates child balances for flows that are not tied to a
// completion or claim aggregate: riddle rewards, rule violations and manual
// adjustments. Every mutation appends its ledger entry in the same
// transaction.
type PointsRepository struct {
	db *sqlx.DB
}

// NewPointsRepository constructs the repository.
func NewPointsRepository(db *sqlx.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// Credit adds points to the child's balance.
func (r *PointsRepository) Credit(ctx context.Context, entry models.LedgerEntry) (err error) {
	if entry.Delta <= 0 {
		return fmt.Errorf("credit delta must be positive, got %d", entry.Delta)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin credit transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const creditQuery = `UPDATE children SET points = points + $1, updated_at = $2 WHERE id = $3`
	if _, err = tx.ExecContext(ctx, creditQuery, entry.Delta, time.Now().UTC(), entry.ChildID); err != nil {
		return fmt.Errorf("credit points: %w", err)
	}

	if err = appendLedgerTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit credit: %w", err)
	}
	return nil
}

// DeductClamped removes up to amount points, clamping at zero, and returns
// how many points were actually deducted. The ledger entry records the
// actual deduction so the ledger keeps summing to the balance.
func (r *PointsRepository) DeductClamped(ctx context.Context, childID string, amount int, entryType models.LedgerEntryType, reason string) (deducted int, err error) {
	if amount <= 0 {
		return 0, fmt.Errorf("deduction amount must be positive, got %d", amount)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin deduct transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var balance int
	if err = tx.GetContext(ctx, &balance, `SELECT points FROM children WHERE id = $1 FOR UPDATE`, childID); err != nil {
		return 0, fmt.Errorf("lock child balance: %w", err)
	}
	deducted = amount
	if balance < deducted {
		deducted = balance
	}

	if deducted > 0 {
		const debitQuery = `UPDATE children SET points = points - $1, updated_at = $2 WHERE id = $3`
		if _, err = tx.ExecContext(ctx, debitQuery, deducted, time.Now().UTC(), childID); err != nil {
			return 0, fmt.Errorf("deduct points: %w", err)
		}
	}

	if err = appendLedgerTx(ctx, tx, models.LedgerEntry{
		ChildID:   childID,
		Delta:     -deducted,
		EntryType: entryType,
		Reason:    reason,
	}); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit deduct: %w", err)
	}
	return deducted, nil
}
