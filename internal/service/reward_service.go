package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

type rewardRepository interface {
	Create(ctx context.Context, reward *models.Reward) error
	FindByID(ctx context.Context, id string) (*models.Reward, error)
	ListByParent(ctx context.Context, parentID string) ([]models.Reward, error)
	Update(ctx context.Context, reward *models.Reward) error
	Delete(ctx context.Context, id string) error
	ListClaims(ctx context.Context, childID string) ([]models.RewardClaim, error)
	Claim(ctx context.Context, childID string, reward *models.Reward) (*models.RewardClaim, error)
}

type rewardChildRepository interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
}

type ledgerSnapshotter interface {
	Snapshot(ctx context.Context, childID string) (*models.LedgerSnapshot, error)
}

type statsInvalidator interface {
	InvalidateChild(ctx context.Context, childID string)
}

// RewardService manages the reward catalog and the eligibility engine:
// which rewards a child can afford, which are already claimed, progress
// toward the next reward, and the claim exchange itself.
type RewardService struct {
	repo      rewardRepository
	children  rewardChildRepository
	snapshots ledgerSnapshotter
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRewardService constructs the service. stats may be nil when dashboard
// caching is disabled.
func NewRewardService(repo rewardRepository, children rewardChildRepository, snapshots ledgerSnapshotter, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *RewardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RewardService{repo: repo, children: children, snapshots: snapshots, stats: stats, validator: validate, logger: logger}
}

// Create adds a catalog reward for the parent.
func (s *RewardService) Create(ctx context.Context, parentID string, req models.CreateRewardRequest) (*models.Reward, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reward payload")
	}
	reward := &models.Reward{
		ParentID:   parentID,
		Label:      req.Label,
		CostPoints: req.CostPoints,
		Icon:       req.Icon,
	}
	if err := s.repo.Create(ctx, reward); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reward")
	}
	return reward, nil
}

// List returns the parent's reward catalog in stable creation order.
func (s *RewardService) List(ctx context.Context, parentID string) ([]models.Reward, error) {
	rewards, err := s.repo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rewards")
	}
	return rewards, nil
}

// Update mutates a catalog reward.
func (s *RewardService) Update(ctx context.Context, parentID, rewardID string, req models.UpdateRewardRequest) (*models.Reward, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reward payload")
	}

	reward, err := s.ownedReward(ctx, parentID, rewardID)
	if err != nil {
		return nil, err
	}

	if req.Label != nil {
		reward.Label = *req.Label
	}
	if req.CostPoints != nil {
		reward.CostPoints = *req.CostPoints
	}
	if req.Icon != nil {
		reward.Icon = *req.Icon
	}

	if err := s.repo.Update(ctx, reward); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update reward")
	}
	return reward, nil
}

// Delete removes a catalog reward. Existing claims keep their recorded cost.
func (s *RewardService) Delete(ctx context.Context, parentID, rewardID string) error {
	if _, err := s.ownedReward(ctx, parentID, rewardID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, rewardID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete reward")
	}
	return nil
}

// Eligibility reports claim state and affordability for every catalog
// reward, in catalog order. A claimed reward is never affordable.
func (s *RewardService) Eligibility(ctx context.Context, parentID, childID string) ([]models.RewardEligibility, error) {
	rewards, snapshot, err := s.catalogAndSnapshot(ctx, parentID, childID)
	if err != nil {
		return nil, err
	}
	return buildEligibility(rewards, snapshot), nil
}

// Stats aggregates catalog-wide eligibility counters for a child.
func (s *RewardService) Stats(ctx context.Context, parentID, childID string) (*models.RewardStats, error) {
	rewards, snapshot, err := s.catalogAndSnapshot(ctx, parentID, childID)
	if err != nil {
		return nil, err
	}
	stats := buildRewardStats(rewards, snapshot)
	return &stats, nil
}

// Progress names the next reward to work toward. An affordable unclaimed
// reward wins outright; otherwise the cheapest unclaimed reward is the
// target. With everything claimed the terminal state is progress 100 and no
// next reward.
func (s *RewardService) Progress(ctx context.Context, parentID, childID string) (*models.RewardProgress, error) {
	rewards, snapshot, err := s.catalogAndSnapshot(ctx, parentID, childID)
	if err != nil {
		return nil, err
	}
	progress := buildRewardProgress(rewards, snapshot)
	return &progress, nil
}

// Claim exchanges the child's points for a reward. Insufficient points and
// repeat claims are rejected without touching the balance.
func (s *RewardService) Claim(ctx context.Context, parentID, childID, rewardID string) (*models.RewardClaim, error) {
	child, err := s.children.FindByID(ctx, childID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch child")
	}
	if child.ParentID != parentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "child belongs to another family")
	}

	reward, err := s.ownedReward(ctx, parentID, rewardID)
	if err != nil {
		return nil, err
	}

	claim, err := s.repo.Claim(ctx, childID, reward)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim reward")
	}

	if s.stats != nil {
		s.stats.InvalidateChild(ctx, childID)
	}
	s.logger.Info("reward claimed",
		zap.String("child_id", childID),
		zap.String("reward_id", rewardID),
		zap.Int("cost", claim.CostPaid),
	)
	return claim, nil
}

func (s *RewardService) ownedReward(ctx context.Context, parentID, rewardID string) (*models.Reward, error) {
	reward, err := s.repo.FindByID(ctx, rewardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reward not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch reward")
	}
	if reward.ParentID != parentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reward belongs to another family")
	}
	return reward, nil
}

func (s *RewardService) catalogAndSnapshot(ctx context.Context, parentID, childID string) ([]models.Reward, *models.LedgerSnapshot, error) {
	rewards, err := s.repo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rewards")
	}
	snapshot, err := s.snapshots.Snapshot(ctx, childID)
	if err != nil {
		return nil, nil, err
	}
	return rewards, snapshot, nil
}

func buildEligibility(rewards []models.Reward, snapshot *models.LedgerSnapshot) []models.RewardEligibility {
	claimed := snapshot.ClaimedSet()
	eligibility := make([]models.RewardEligibility, 0, len(rewards))
	for _, reward := range rewards {
		_, isClaimed := claimed[reward.ID]
		eligibility = append(eligibility, models.RewardEligibility{
			Reward:     reward,
			Claimed:    isClaimed,
			Affordable: !isClaimed && snapshot.Balance >= reward.CostPoints,
		})
	}
	return eligibility
}

func buildRewardStats(rewards []models.Reward, snapshot *models.LedgerSnapshot) models.RewardStats {
	claimed := snapshot.ClaimedSet()
	stats := models.RewardStats{Total: len(rewards)}
	for _, reward := range rewards {
		if _, isClaimed := claimed[reward.ID]; isClaimed {
			stats.ClaimedN++
			continue
		}
		stats.Available++
		if snapshot.Balance >= reward.CostPoints {
			stats.Affordable++
		}
	}
	for _, claim := range snapshot.Claims {
		stats.PointsSpent += claim.CostPaid
	}
	return stats
}

func buildRewardProgress(rewards []models.Reward, snapshot *models.LedgerSnapshot) models.RewardProgress {
	claimed := snapshot.ClaimedSet()

	// Catalog order is stable, so the first match at the minimum cost wins
	// ties deterministically.
	var cheapestAffordable, cheapestUnclaimed *models.Reward
	for i := range rewards {
		reward := &rewards[i]
		if _, isClaimed := claimed[reward.ID]; isClaimed {
			continue
		}
		if cheapestUnclaimed == nil || reward.CostPoints < cheapestUnclaimed.CostPoints {
			cheapestUnclaimed = reward
		}
		if snapshot.Balance >= reward.CostPoints {
			if cheapestAffordable == nil || reward.CostPoints < cheapestAffordable.CostPoints {
				cheapestAffordable = reward
			}
		}
	}

	if cheapestAffordable != nil {
		return models.RewardProgress{NextReward: cheapestAffordable, Progress: 100, PointsNeeded: 0}
	}
	if cheapestUnclaimed == nil {
		// Everything claimed: terminal state.
		return models.RewardProgress{Progress: 100, PointsNeeded: 0}
	}

	progress := float64(snapshot.Balance) / float64(cheapestUnclaimed.CostPoints) * 100
	if progress > 100 {
		progress = 100
	}
	if progress < 0 {
		progress = 0
	}
	needed := cheapestUnclaimed.CostPoints - snapshot.Balance
	if needed < 0 {
		needed = 0
	}
	return models.RewardProgress{NextReward: cheapestUnclaimed, Progress: progress, PointsNeeded: needed}
}
