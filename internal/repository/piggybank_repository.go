package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

// PiggyBankRepository moves points between the spendable and saved balances.
// Both sides of a move plus the ledger append happen in one transaction.
type PiggyBankRepository struct {
	db *sqlx.DB
}

// NewPiggyBankRepository constructs the repository.
func NewPiggyBankRepository(db *sqlx.DB) *PiggyBankRepository {
	return &PiggyBankRepository{db: db}
}

// Deposit moves spendable points into the piggy bank.
func (r *PiggyBankRepository) Deposit(ctx context.Context, childID string, amount int) (*models.PiggyBankTransaction, error) {
	const moveQuery = `
UPDATE children
SET points = points - $1, saved_points = saved_points + $1, updated_at = $2
WHERE id = $3 AND points >= $1`
	return r.move(ctx, childID, amount, models.PiggyBankDeposit, moveQuery, appErrors.ErrInsufficientPoints, -amount, "piggy bank deposit")
}

// Withdraw moves saved points back to the spendable balance.
func (r *PiggyBankRepository) Withdraw(ctx context.Context, childID string, amount int) (*models.PiggyBankTransaction, error) {
	const moveQuery = `
UPDATE children
SET points = points + $1, saved_points = saved_points - $1, updated_at = $2
WHERE id = $3 AND saved_points >= $1`
	return r.move(ctx, childID, amount, models.PiggyBankWithdraw, moveQuery, appErrors.ErrInsufficientSavings, amount, "piggy bank withdrawal")
}

func (r *PiggyBankRepository) move(
	ctx context.Context,
	childID string,
	amount int,
	direction models.PiggyBankDirection,
	moveQuery string,
	shortfall *appErrors.Error,
	ledgerDelta int,
	reason string,
) (txn *models.PiggyBankTransaction, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin piggy bank transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, moveQuery, amount, time.Now().UTC(), childID)
	if err != nil {
		return nil, fmt.Errorf("move piggy bank points: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("move piggy bank points: %w", err)
	}
	if affected == 0 {
		err = shortfall
		return nil, err
	}

	txn = &models.PiggyBankTransaction{
		ID:        uuid.NewString(),
		ChildID:   childID,
		Direction: direction,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	const insertQuery = `
INSERT INTO piggy_bank_transactions (id, child_id, direction, amount, created_at)
VALUES ($1, $2, $3, $4, $5)`
	if _, err = tx.ExecContext(ctx, insertQuery,
		txn.ID, txn.ChildID, txn.Direction, txn.Amount, txn.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert piggy bank transaction: %w", err)
	}

	if err = appendLedgerTx(ctx, tx, models.LedgerEntry{
		ChildID:   childID,
		Delta:     ledgerDelta,
		EntryType: models.LedgerEntryPiggyBank,
		Reason:    reason,
	}); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit piggy bank transaction: %w", err)
	}
	return txn, nil
}

// ListTransactions returns the child's piggy bank history newest first.
func (r *PiggyBankRepository) ListTransactions(ctx context.Context, childID string) ([]models.PiggyBankTransaction, error) {
	const query = `
SELECT id, child_id, direction, amount, created_at
FROM piggy_bank_transactions
WHERE child_id = $1
ORDER BY created_at DESC`

	var txns []models.PiggyBankTransaction
	if err := r.db.SelectContext(ctx, &txns, query, childID); err != nil {
		return nil, fmt.Errorf("list piggy bank transactions: %w", err)
	}
	return txns, nil
}
