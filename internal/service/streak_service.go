package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/famquest-app/famquest-api/internal/models"
	"github.com/famquest-app/famquest-api/internal/streak"
)

type snapshotProvider interface {
	SnapshotAt(ctx context.Context, childID string, now time.Time) (*models.LedgerSnapshot, error)
}

// StreakResult reports the current streak and its window bound.
type StreakResult struct {
	ChildID    string `json:"child_id"`
	Streak     int    `json:"streak"`
	WindowDays int    `json:"window_days"`
}

// StreakService computes consecutive-day completion streaks. The calculation
// walks backward from today over the distinct due dates in the snapshot
// window; a day with no completion ends the streak, today included. Streaks
// longer than the window report the window size.
type StreakService struct {
	snapshots snapshotProvider
	logger    *zap.Logger
}

// NewStreakService constructs the service.
func NewStreakService(snapshots snapshotProvider, logger *zap.Logger) *StreakService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreakService{snapshots: snapshots, logger: logger}
}

// Current returns the child's streak as of now.
func (s *StreakService) Current(ctx context.Context, childID string) (*StreakResult, error) {
	return s.CurrentAt(ctx, childID, time.Now().UTC())
}

// CurrentAt computes the streak anchored at an explicit reference time.
func (s *StreakService) CurrentAt(ctx context.Context, childID string, now time.Time) (*StreakResult, error) {
	snapshot, err := s.snapshots.SnapshotAt(ctx, childID, now)
	if err != nil {
		return nil, err
	}

	days := make(map[string]struct{}, len(snapshot.Completions))
	for _, completion := range snapshot.Completions {
		days[streak.DateKey(completion.DueDate)] = struct{}{}
	}

	return &StreakResult{
		ChildID:    childID,
		Streak:     streak.Current(days, now),
		WindowDays: snapshot.WindowDays,
	}, nil
}
