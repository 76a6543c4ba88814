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

// RewardRepository persists the reward catalog and claims.
type RewardRepository struct {
	db *sqlx.DB
}

// NewRewardRepository constructs the repository.
func NewRewardRepository(db *sqlx.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// Create inserts a catalog reward.
func (r *RewardRepository) Create(ctx context.Context, reward *models.Reward) error {
	if reward.ID == "" {
		reward.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	reward.CreatedAt = now
	reward.UpdatedAt = now

	const query = `
INSERT INTO rewards (id, parent_id, label, cost_points, icon, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		reward.ID, reward.ParentID, reward.Label, reward.CostPoints, reward.Icon,
		reward.CreatedAt, reward.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create reward: %w", err)
	}
	return nil
}

// FindByID fetches one catalog reward. Returns sql.ErrNoRows when absent.
func (r *RewardRepository) FindByID(ctx context.Context, id string) (*models.Reward, error) {
	const query = `
SELECT id, parent_id, label, cost_points, icon, created_at, updated_at
FROM rewards
WHERE id = $1`

	var reward models.Reward
	if err := r.db.GetContext(ctx, &reward, query, id); err != nil {
		return nil, err
	}
	return &reward, nil
}

// ListByParent returns the parent's reward catalog in stable creation order.
// Iteration order matters downstream: eligibility tie-breaks resolve by the
// first catalog entry at the minimum cost.
func (r *RewardRepository) ListByParent(ctx context.Context, parentID string) ([]models.Reward, error) {
	const query = `
SELECT id, parent_id, label, cost_points, icon, created_at, updated_at
FROM rewards
WHERE parent_id = $1
ORDER BY created_at ASC, id ASC`

	var rewards []models.Reward
	if err := r.db.SelectContext(ctx, &rewards, query, parentID); err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	return rewards, nil
}

// Update persists catalog changes.
func (r *RewardRepository) Update(ctx context.Context, reward *models.Reward) error {
	reward.UpdatedAt = time.Now().UTC()

	const query = `UPDATE rewards SET label = $1, cost_points = $2, icon = $3, updated_at = $4 WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query,
		reward.Label, reward.CostPoints, reward.Icon, reward.UpdatedAt, reward.ID,
	); err != nil {
		return fmt.Errorf("update reward: %w", err)
	}
	return nil
}

// Delete removes a catalog reward.
func (r *RewardRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rewards WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

// ListClaims returns all claims recorded for a child.
func (r *RewardRepository) ListClaims(ctx context.Context, childID string) ([]models.RewardClaim, error) {
	const query = `
SELECT id, child_id, reward_id, cost_paid, claimed_at
FROM reward_claims
WHERE child_id = $1
ORDER BY claimed_at DESC`

	var claims []models.RewardClaim
	if err := r.db.SelectContext(ctx, &claims, query, childID); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}

// Claim exchanges points for a reward in one transaction: a conditional
// balance decrement, the claim insert, and the ledger append. The
// conditional decrement serialises concurrent point spends at the store, so
// two racing claims cannot both succeed on the same points.
func (r *RewardRepository) Claim(ctx context.Context, childID string, reward *models.Reward) (claim *models.RewardClaim, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists bool
	const existsQuery = `SELECT EXISTS (SELECT 1 FROM reward_claims WHERE child_id = $1 AND reward_id = $2)`
	if err = tx.GetContext(ctx, &exists, existsQuery, childID, reward.ID); err != nil {
		return nil, fmt.Errorf("check existing claim: %w", err)
	}
	if exists {
		err = appErrors.ErrAlreadyClaimed
		return nil, err
	}

	const deductQuery = `
UPDATE children
SET points = points - $1, updated_at = $2
WHERE id = $3 AND points >= $1`
	result, err := tx.ExecContext(ctx, deductQuery, reward.CostPoints, time.Now().UTC(), childID)
	if err != nil {
		return nil, fmt.Errorf("deduct claim cost: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("deduct claim cost: %w", err)
	}
	if affected == 0 {
		err = appErrors.ErrInsufficientPoints
		return nil, err
	}

	claim = &models.RewardClaim{
		ID:        uuid.NewString(),
		ChildID:   childID,
		RewardID:  reward.ID,
		CostPaid:  reward.CostPoints,
		ClaimedAt: time.Now().UTC(),
	}
	const insertQuery = `
INSERT INTO reward_claims (id, child_id, reward_id, cost_paid, claimed_at)
VALUES ($1, $2, $3, $4, $5)`
	if _, err = tx.ExecContext(ctx, insertQuery,
		claim.ID, claim.ChildID, claim.RewardID, claim.CostPaid, claim.ClaimedAt,
	); err != nil {
		// A racing claim can slip between the existence check and the
		// insert; the UNIQUE constraint settles it.
		if isUniqueViolation(err) {
			err = appErrors.ErrAlreadyClaimed
			return nil, err
		}
		return nil, fmt.Errorf("insert claim: %w", err)
	}

	if err = appendLedgerTx(ctx, tx, models.LedgerEntry{
		ChildID:   childID,
		Delta:     -reward.CostPoints,
		EntryType: models.LedgerEntryReward,
		Reason:    reward.Label,
		RewardID:  &reward.ID,
	}); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return claim, nil
}
