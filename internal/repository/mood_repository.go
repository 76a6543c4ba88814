package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/famquest-app/famquest-api/internal/models"
)

// MoodRepository persists child mood log entries.
type MoodRepository struct {
	db *sqlx.DB
}

// NewMoodRepository constructs the repository.
func NewMoodRepository(db *sqlx.DB) *MoodRepository {
	return &MoodRepository{db: db}
}

// Create inserts a mood entry.
func (r *MoodRepository) Create(ctx context.Context, mood *models.Mood) error {
	if mood.ID == "" {
		mood.ID = uuid.NewString()
	}
	if mood.CreatedAt.IsZero() {
		mood.CreatedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO moods (id, child_id, mood, note, recorded_on, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query,
		mood.ID, mood.ChildID, mood.Mood, mood.Note, mood.RecordedOn, mood.CreatedAt,
	); err != nil {
		return fmt.Errorf("create mood: %w", err)
	}
	return nil
}

// ListSince returns mood entries recorded on or after the cutoff, newest
// first.
func (r *MoodRepository) ListSince(ctx context.Context, childID string, since time.Time) ([]models.Mood, error) {
	const query = `
SELECT id, child_id, mood, note, recorded_on, created_at
FROM moods
WHERE child_id = $1 AND recorded_on >= $2
ORDER BY recorded_on DESC, created_at DESC`

	var moods []models.Mood
	if err := r.db.SelectContext(ctx, &moods, query, childID, since); err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	return moods, nil
}
