package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/famquest-app/famquest-api/internal/models"
)

// LedgerRepository reads the append-only points history. Appends happen
// inside the transaction of whichever write mutates the balance, via
// appendLedgerTx, so the ledger and the cached balance cannot drift.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs the repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// List returns a child's ledger entries ordered by creation time descending.
func (r *LedgerRepository) List(ctx context.Context, childID string, filter models.LedgerFilter) ([]models.LedgerEntry, error) {
	query := strings.Builder{}
	query.WriteString(`
SELECT id, child_id, delta, entry_type, reason, task_id, reward_id, created_at
FROM points_history
WHERE child_id = $1`)

	args := []interface{}{childID}
	if filter.EntryType != "" {
		args = append(args, filter.EntryType)
		fmt.Fprintf(&query, " AND entry_type = $%d", len(args))
	}
	query.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	fmt.Fprintf(&query, " LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&query, " OFFSET $%d", len(args))
	}

	var entries []models.LedgerEntry
	if err := r.db.SelectContext(ctx, &entries, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, nil
}

// ListBetween returns entries within [from, to) ascending, for report builds.
func (r *LedgerRepository) ListBetween(ctx context.Context, childID string, from, to time.Time) ([]models.LedgerEntry, error) {
	const query = `
SELECT id, child_id, delta, entry_type, reason, task_id, reward_id, created_at
FROM points_history
WHERE child_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at ASC`

	var entries []models.LedgerEntry
	if err := r.db.SelectContext(ctx, &entries, query, childID, from, to); err != nil {
		return nil, fmt.Errorf("list ledger range: %w", err)
	}
	return entries, nil
}

const appendLedgerQuery = `
INSERT INTO points_history (id, child_id, delta, entry_type, reason, task_id, reward_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// appendLedgerTx writes one ledger row inside the caller's transaction.
func appendLedgerTx(ctx context.Context, tx *sqlx.Tx, entry models.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx, appendLedgerQuery,
		entry.ID, entry.ChildID, entry.Delta, entry.EntryType, entry.Reason,
		entry.TaskID, entry.RewardID, entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}
