package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/famquest-app/famquest-api/internal/models"
)

// ChildRepository provides persistence for child profiles and their point
// balances.
type ChildRepository struct {
	db *sqlx.DB
}

// NewChildRepository constructs the repository.
func NewChildRepository(db *sqlx.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// Create inserts a child profile and returns it.
func (r *ChildRepository) Create(ctx context.Context, child *models.Child) error {
	if child.ID == "" {
		child.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	child.CreatedAt = now
	child.UpdatedAt = now
	child.Active = true

	const query = `
INSERT INTO children (id, parent_id, name, avatar, birth_year, points, saved_points, pin_hash, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	if _, err := r.db.ExecContext(ctx, query,
		child.ID, child.ParentID, child.Name, child.Avatar, child.BirthYear,
		child.Points, child.SavedPoints, child.PINHash, child.Active,
		child.CreatedAt, child.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create child: %w", err)
	}
	return nil
}

// FindByID fetches a child profile. Returns sql.ErrNoRows when absent.
func (r *ChildRepository) FindByID(ctx context.Context, id string) (*models.Child, error) {
	const query = `
SELECT id, parent_id, name, avatar, birth_year, points, saved_points, pin_hash, active, created_at, updated_at
FROM children
WHERE id = $1 AND active = true`

	var child models.Child
	if err := r.db.GetContext(ctx, &child, query, id); err != nil {
		return nil, err
	}
	return &child, nil
}

// ListByParent returns the parent's active child profiles.
func (r *ChildRepository) ListByParent(ctx context.Context, parentID string) ([]models.Child, error) {
	const query = `
SELECT id, parent_id, name, avatar, birth_year, points, saved_points, pin_hash, active, created_at, updated_at
FROM children
WHERE parent_id = $1 AND active = true
ORDER BY created_at ASC`

	var children []models.Child
	if err := r.db.SelectContext(ctx, &children, query, parentID); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}

// Update persists mutable profile attributes.
func (r *ChildRepository) Update(ctx context.Context, child *models.Child) error {
	child.UpdatedAt = time.Now().UTC()

	const query = `
UPDATE children
SET name = $1, avatar = $2, birth_year = $3, pin_hash = $4, updated_at = $5
WHERE id = $6`

	if _, err := r.db.ExecContext(ctx, query,
		child.Name, child.Avatar, child.BirthYear, child.PINHash, child.UpdatedAt, child.ID,
	); err != nil {
		return fmt.Errorf("update child: %w", err)
	}
	return nil
}

// Deactivate soft-deletes a child profile.
func (r *ChildRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE children SET active = false, updated_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("deactivate child: %w", err)
	}
	return nil
}

// Balance reads the current spendable and saved point totals.
func (r *ChildRepository) Balance(ctx context.Context, id string) (*models.PointsBalance, error) {
	const query = `
SELECT id AS child_id, name, points, saved_points
FROM children
WHERE id = $1 AND active = true`

	var balance models.PointsBalance
	if err := r.db.GetContext(ctx, &balance, query, id); err != nil {
		return nil, err
	}
	return &balance, nil
}
