package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/famquest-app/famquest-api/internal/dto"
	"github.com/famquest-app/famquest-api/internal/models"
	"github.com/famquest-app/famquest-api/internal/streak"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

type statsLedgerReader interface {
	SnapshotAt(ctx context.Context, childID string, now time.Time) (*models.LedgerSnapshot, error)
	WeekEntries(ctx context.Context, childID string, weekStart time.Time) ([]models.LedgerEntry, error)
}

type statsRewardReader interface {
	ListByParent(ctx context.Context, parentID string) ([]models.Reward, error)
}

type statsChildReader interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
	ListByParent(ctx context.Context, parentID string) ([]models.Child, error)
}

type statsCacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// StatsService assembles the per-child dashboard summary: balance, streak,
// trailing-week earn/spend, and reward eligibility. Summaries are cached
// briefly and invalidated whenever a write moves the child's points.
type StatsService struct {
	ledger   statsLedgerReader
	rewards  statsRewardReader
	children statsChildReader
	cache    statsCacheStore
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewStatsService constructs the service. cache may be nil to disable
// dashboard caching.
func NewStatsService(ledger statsLedgerReader, rewards statsRewardReader, children statsChildReader, cache statsCacheStore, cacheTTL time.Duration, logger *zap.Logger) *StatsService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		ledger:   ledger,
		rewards:  rewards,
		children: children,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// ChildStats builds the dashboard summary for one child.
func (s *StatsService) ChildStats(ctx context.Context, parentID, childID string) (*dto.ChildStats, error) {
	cacheKey := statsCacheKey(childID)
	if s.cache != nil {
		var cached dto.ChildStats
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

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

	stats, err := s.buildChildStats(ctx, child)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, stats, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache child stats", zap.Error(err))
		}
	}
	return stats, nil
}

// FamilyStats builds summaries for every child of the parent.
func (s *StatsService) FamilyStats(ctx context.Context, parentID string) ([]dto.ChildStats, error) {
	children, err := s.children.ListByParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
	}

	all := make([]dto.ChildStats, 0, len(children))
	for i := range children {
		stats, err := s.buildChildStats(ctx, &children[i])
		if err != nil {
			return nil, err
		}
		all = append(all, *stats)
	}
	return all, nil
}

// InvalidateChild drops the cached dashboard entry for a child. Called by
// every service whose writes move the child's points.
func (s *StatsService) InvalidateChild(ctx context.Context, childID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, statsCacheKey(childID)); err != nil {
		s.logger.Warn("failed to invalidate child stats", zap.String("child_id", childID), zap.Error(err))
	}
}

func (s *StatsService) buildChildStats(ctx context.Context, child *models.Child) (*dto.ChildStats, error) {
	now := time.Now().UTC()

	snapshot, err := s.ledger.SnapshotAt(ctx, child.ID, now)
	if err != nil {
		return nil, err
	}

	days := make(map[string]struct{}, len(snapshot.Completions))
	for _, completion := range snapshot.Completions {
		days[streak.DateKey(completion.DueDate)] = struct{}{}
	}

	weekEntries, err := s.ledger.WeekEntries(ctx, child.ID, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	var earned, spent int
	for _, entry := range weekEntries {
		if entry.Delta > 0 {
			earned += entry.Delta
		} else {
			spent -= entry.Delta
		}
	}

	rewards, err := s.rewards.ListByParent(ctx, child.ParentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rewards")
	}

	return &dto.ChildStats{
		ChildID:     child.ID,
		Name:        child.Name,
		Points:      snapshot.Balance,
		SavedPoints: child.SavedPoints,
		Streak:      streak.Current(days, now),
		WindowDays:  snapshot.WindowDays,
		WeekEarned:  earned,
		WeekSpent:   spent,
		Rewards:     buildRewardStats(rewards, snapshot),
		Progress:    buildRewardProgress(rewards, snapshot),
	}, nil
}

func statsCacheKey(childID string) string {
	return fmt.Sprintf("stats:child:%s", childID)
}
