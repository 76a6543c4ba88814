package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

type mockStatsLedger struct {
	snapshot      models.LedgerSnapshot
	week          []models.LedgerEntry
	snapshotCalls int
}

func (m *mockStatsLedger) SnapshotAt(ctx context.Context, childID string, now time.Time) (*models.LedgerSnapshot, error) {
	m.snapshotCalls++
	snapshot := m.snapshot
	snapshot.ChildID = childID
	return &snapshot, nil
}

func (m *mockStatsLedger) WeekEntries(ctx context.Context, childID string, weekStart time.Time) ([]models.LedgerEntry, error) {
	return m.week, nil
}

func newStatsFixture(ledger *mockStatsLedger, cache *mockGenCache) *StatsService {
	children := &mockChildReader{children: map[string]models.Child{
		"child-1": {ID: "child-1", ParentID: "par-1", Name: "Emma", SavedPoints: 12},
	}}
	rewards := &mockRewardRepo{rewards: []models.Reward{
		{ID: "rw-1", ParentID: "par-1", Label: "Cinema", CostPoints: 20},
	}}
	var store statsCacheStore
	if cache != nil {
		store = cache
	}
	return NewStatsService(ledger, rewards, children, store, time.Minute, nil)
}

func TestChildStatsAggregatesWeekAndStreak(t *testing.T) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	ledger := &mockStatsLedger{
		snapshot: models.LedgerSnapshot{
			Balance: 30,
			Completions: []models.CompletionDay{
				{DueDate: today},
				{DueDate: today.AddDate(0, 0, -1)},
			},
			WindowDays: 30,
		},
		week: []models.LedgerEntry{
			{Delta: 10},
			{Delta: 5},
			{Delta: -8},
		},
	}
	svc := newStatsFixture(ledger, nil)

	stats, err := svc.ChildStats(context.Background(), "par-1", "child-1")
	require.NoError(t, err)

	assert.Equal(t, 30, stats.Points)
	assert.Equal(t, 12, stats.SavedPoints)
	assert.Equal(t, 2, stats.Streak)
	assert.Equal(t, 15, stats.WeekEarned)
	assert.Equal(t, 8, stats.WeekSpent)
	assert.Equal(t, 1, stats.Rewards.Total)
	// Balance 30 covers the 20-point reward outright.
	require.NotNil(t, stats.Progress.NextReward)
	assert.Equal(t, "rw-1", stats.Progress.NextReward.ID)
	assert.Equal(t, float64(100), stats.Progress.Progress)
}

func TestChildStatsServedFromCache(t *testing.T) {
	ledger := &mockStatsLedger{snapshot: models.LedgerSnapshot{Balance: 10, WindowDays: 30}}
	cache := &mockGenCache{}
	svc := newStatsFixture(ledger, cache)

	_, err := svc.ChildStats(context.Background(), "par-1", "child-1")
	require.NoError(t, err)
	_, err = svc.ChildStats(context.Background(), "par-1", "child-1")
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.snapshotCalls)

	svc.InvalidateChild(context.Background(), "child-1")

	_, err = svc.ChildStats(context.Background(), "par-1", "child-1")
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.snapshotCalls)
}

func TestChildStatsForeignChildRejected(t *testing.T) {
	ledger := &mockStatsLedger{snapshot: models.LedgerSnapshot{WindowDays: 30}}
	svc := newStatsFixture(ledger, nil)

	_, err := svc.ChildStats(context.Background(), "par-2", "child-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestFamilyStatsOnePerChild(t *testing.T) {
	ledger := &mockStatsLedger{snapshot: models.LedgerSnapshot{Balance: 5, WindowDays: 30}}
	svc := newStatsFixture(ledger, nil)

	all, err := svc.FamilyStats(context.Background(), "par-1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "child-1", all[0].ChildID)
	assert.Equal(t, "Emma", all[0].Name)
}
