package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famquest-app/famquest-api/internal/models"
)

type mockSnapshotProvider struct {
	snapshot models.LedgerSnapshot
}

func (m *mockSnapshotProvider) SnapshotAt(ctx context.Context, childID string, now time.Time) (*models.LedgerSnapshot, error) {
	snap := m.snapshot
	snap.ChildID = childID
	return &snap, nil
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func TestStreakCountsConsecutiveDays(t *testing.T) {
	provider := &mockSnapshotProvider{snapshot: models.LedgerSnapshot{
		Completions: []models.CompletionDay{
			{DueDate: day(t, "2026-03-04")},
			{DueDate: day(t, "2026-03-03")},
			{DueDate: day(t, "2026-03-02")},
		},
		WindowDays: 30,
	}}
	svc := NewStreakService(provider, nil)

	result, err := svc.CurrentAt(context.Background(), "child-1", day(t, "2026-03-04"))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Streak)
	assert.Equal(t, 30, result.WindowDays)
}

func TestStreakZeroWithoutCompletionToday(t *testing.T) {
	provider := &mockSnapshotProvider{snapshot: models.LedgerSnapshot{
		Completions: []models.CompletionDay{
			{DueDate: day(t, "2026-03-02")},
			{DueDate: day(t, "2026-03-03")},
		},
		WindowDays: 30,
	}}
	svc := NewStreakService(provider, nil)

	result, err := svc.CurrentAt(context.Background(), "child-1", day(t, "2026-03-05"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Streak)
}

func TestStreakMultipleCompletionsSameDayCountOnce(t *testing.T) {
	provider := &mockSnapshotProvider{snapshot: models.LedgerSnapshot{
		Completions: []models.CompletionDay{
			{DueDate: day(t, "2026-03-04")},
			{DueDate: day(t, "2026-03-04")},
			{DueDate: day(t, "2026-03-04")},
		},
		WindowDays: 30,
	}}
	svc := NewStreakService(provider, nil)

	result, err := svc.CurrentAt(context.Background(), "child-1", day(t, "2026-03-04"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Streak)
}
