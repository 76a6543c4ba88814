package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

type mockRewardRepo struct {
	rewards    []models.Reward
	claims     []models.RewardClaim
	claimErr   error
	claimCalls int
}

func (m *mockRewardRepo) Create(ctx context.Context, reward *models.Reward) error {
	reward.ID = "new-reward"
	m.rewards = append(m.rewards, *reward)
	return nil
}

func (m *mockRewardRepo) FindByID(ctx context.Context, id string) (*models.Reward, error) {
	for _, r := range m.rewards {
		if r.ID == id {
			reward := r
			return &reward, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockRewardRepo) ListByParent(ctx context.Context, parentID string) ([]models.Reward, error) {
	return m.rewards, nil
}

func (m *mockRewardRepo) Update(ctx context.Context, reward *models.Reward) error { return nil }
func (m *mockRewardRepo) Delete(ctx context.Context, id string) error             { return nil }

func (m *mockRewardRepo) ListClaims(ctx context.Context, childID string) ([]models.RewardClaim, error) {
	return m.claims, nil
}

func (m *mockRewardRepo) Claim(ctx context.Context, childID string, reward *models.Reward) (*models.RewardClaim, error) {
	m.claimCalls++
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	claim := models.RewardClaim{
		ID:        "claim-1",
		ChildID:   childID,
		RewardID:  reward.ID,
		CostPaid:  reward.CostPoints,
		ClaimedAt: time.Now(),
	}
	m.claims = append(m.claims, claim)
	return &claim, nil
}

type mockChildReader struct {
	children map[string]models.Child
}

func (m *mockChildReader) FindByID(ctx context.Context, id string) (*models.Child, error) {
	if c, ok := m.children[id]; ok {
		child := c
		return &child, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockChildReader) ListByParent(ctx context.Context, parentID string) ([]models.Child, error) {
	var out []models.Child
	for _, c := range m.children {
		if c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockSnapshots struct {
	snapshot models.LedgerSnapshot
}

func (m *mockSnapshots) Snapshot(ctx context.Context, childID string) (*models.LedgerSnapshot, error) {
	snap := m.snapshot
	snap.ChildID = childID
	return &snap, nil
}

func newRewardFixture(balance int, rewards []models.Reward, claims []models.RewardClaim) (*RewardService, *mockRewardRepo) {
	repo := &mockRewardRepo{rewards: rewards, claims: claims}
	children := &mockChildReader{children: map[string]models.Child{
		"child-1": {ID: "child-1", ParentID: "par-1", Name: "Emma", Points: balance},
	}}
	snapshots := &mockSnapshots{snapshot: models.LedgerSnapshot{
		Balance:    balance,
		Claims:     claims,
		WindowDays: 30,
	}}
	svc := NewRewardService(repo, children, snapshots, nil, nil, nil)
	return svc, repo
}

func TestRewardEligibilityAffordability(t *testing.T) {
	// Balance 40 against a 20-point and a 50-point reward.
	rewards := []models.Reward{
		{ID: "rw-a", ParentID: "par-1", Label: "Cinema", CostPoints: 20},
		{ID: "rw-b", ParentID: "par-1", Label: "Toy", CostPoints: 50},
	}
	svc, _ := newRewardFixture(40, rewards, nil)

	eligibility, err := svc.Eligibility(context.Background(), "par-1", "child-1")
	require.NoError(t, err)
	require.Len(t, eligibility, 2)

	assert.True(t, eligibility[0].Affordable)
	assert.False(t, eligibility[0].Claimed)
	assert.False(t, eligibility[1].Affordable)

	progress, err := svc.Progress(context.Background(), "par-1", "child-1")
	require.NoError(t, err)
	require.NotNil(t, progress.NextReward)
	assert.Equal(t, "rw-a", progress.NextReward.ID)
	assert.Equal(t, float64(100), progress.Progress)
	assert.Equal(t, 0, progress.PointsNeeded)
}

func TestRewardProgressTowardCheapestUnclaimed(t *testing.T) {
	rewards := []models.Reward{
		{ID: "rw-a", ParentID: "par-1", Label: "Cinema", CostPoints: 20},
		{ID: "rw-b", ParentID: "par-1", Label: "Toy", CostPoints: 50},
	}
	claims := []models.RewardClaim{{ID: "claim-a", ChildID: "child-1", RewardID: "rw-a", CostPaid: 20}}
	svc, _ := newRewardFixture(20, rewards, claims)

	progress, err := svc.Progress(context.Background(), "par-1", "child-1")
	require.NoError(t, err)
	require.NotNil(t, progress.NextReward)
	assert.Equal(t, "rw-b", progress.NextReward.ID)
	assert.InDelta(t, 40.0, progress.Progress, 0.001)
	assert.Equal(t, 30, progress.PointsNeeded)
}

func TestRewardProgressTieBreaksByCatalogOrder(t *testing.T) {
	rewards := []models.Reward{
		{ID: "rw-first", ParentID: "par-1", Label: "Stickers", CostPoints: 30},
		{ID: "rw-second", ParentID: "par-1", Label: "Comic", CostPoints: 30},
	}
	svc, _ := newRewardFixture(10, rewards, nil)

	progress, err := svc.Progress(context.Background(), "par-1", "child-1")
	require.NoError(t, err)
	require.NotNil(t, progress.NextReward)
	assert.Equal(t, "rw-first", progress.NextReward.ID)
}

func TestRewardProgressTerminalWhenAllClaimed(t *testing.T) {
	rewards := []models.Reward{
		{ID: "rw-a", ParentID: "par-1", Label: "Cinema", CostPoints: 20},
	}
	claims := []models.RewardClaim{{ID: "claim-a", ChildID: "child-1", RewardID: "rw-a", CostPaid: 20}}
	svc, _ := newRewardFixture(100, rewards, claims)

	progress, err := svc.Progress(context.Background(), "par-1", "child-1")
	require.NoError(t, err)
	assert.Nil(t, progress.NextReward)
	assert.Equal(t, float64(100), progress.Progress)
	assert.Equal(t, 0, progress.PointsNeeded)
}

func TestRewardStatsCounters(t *testing.T) {
	rewards := []models.Reward{
		{ID: "rw-a", ParentID: "par-1", Label: "Cinema", CostPoints: 20},
		{ID: "rw-b", ParentID: "par-1", Label: "Toy", CostPoints: 50},
		{ID: "rw-c", ParentID: "par-1", Label: "Trip", CostPoints: 80},
	}
	claims := []models.RewardClaim{{ID: "claim-a", ChildID: "child-1", RewardID: "rw-a", CostPaid: 20}}
	svc, _ := newRewardFixture(60, rewards, claims)

	stats, err := svc.Stats(context.Background(), "par-1", "child-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ClaimedN)
	assert.Equal(t, 2, stats.Available)
	assert.Equal(t, 1, stats.Affordable)
	assert.Equal(t, 20, stats.PointsSpent)
}

func TestRewardClaimSuccess(t *testing.T) {
	rewards := []models.Reward{
		{ID: "rw-a", ParentID: "par-1", Label: "Cinema", CostPoints: 20},
	}
	svc, repo := newRewardFixture(40, rewards, nil)

	claim, err := svc.Claim(context.Background(), "par-1", "child-1", "rw-a")
	require.NoError(t, err)
	assert.Equal(t, "rw-a", claim.RewardID)
	assert.Equal(t, 20, claim.CostPaid)
	assert.Equal(t, 1, repo.claimCalls)
}

func TestRewardClaimInsufficientPointsPassthrough(t *testing.T) {
	rewards := []models.Reward{
		{ID: "rw-b", ParentID: "par-1", Label: "Toy", CostPoints: 50},
	}
	svc, repo := newRewardFixture(40, rewards, nil)
	repo.claimErr = appErrors.ErrInsufficientPoints

	claim, err := svc.Claim(context.Background(), "par-1", "child-1", "rw-b")
	require.ErrorIs(t, err, appErrors.ErrInsufficientPoints)
	assert.Nil(t, claim)
	assert.Empty(t, repo.claims)
}

func TestRewardClaimAlreadyClaimedPassthrough(t *testing.T) {
	rewards := []models.Reward{
		{ID: "rw-a", ParentID: "par-1", Label: "Cinema", CostPoints: 20},
	}
	svc, repo := newRewardFixture(40, rewards, nil)
	repo.claimErr = appErrors.ErrAlreadyClaimed

	_, err := svc.Claim(context.Background(), "par-1", "child-1", "rw-a")
	require.ErrorIs(t, err, appErrors.ErrAlreadyClaimed)
}

func TestRewardClaimForeignChildRejected(t *testing.T) {
	rewards := []models.Reward{
		{ID: "rw-a", ParentID: "par-1", Label: "Cinema", CostPoints: 20},
	}
	svc, repo := newRewardFixture(40, rewards, nil)

	_, err := svc.Claim(context.Background(), "par-2", "child-1", "rw-a")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.claimCalls)
}
