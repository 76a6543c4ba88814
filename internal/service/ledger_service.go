package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

type ledgerRepository interface {
	List(ctx context.Context, childID string, filter models.LedgerFilter) ([]models.LedgerEntry, error)
	ListBetween(ctx context.Context, childID string, from, to time.Time) ([]models.LedgerEntry, error)
}

type snapshotBalanceReader interface {
	Balance(ctx context.Context, id string) (*models.PointsBalance, error)
}

type snapshotCompletionReader interface {
	ListWindow(ctx context.Context, childID string, since time.Time) ([]models.CompletionDay, error)
}

type snapshotClaimReader interface {
	ListClaims(ctx context.Context, childID string) ([]models.RewardClaim, error)
}

// LedgerService exposes the points history and builds the snapshot the
// streak calculator and the reward eligibility engine both read from. A
// snapshot is all-or-nothing: if any of its reads fails, no partial snapshot
// is returned.
type LedgerService struct {
	ledger      ledgerRepository
	balances    snapshotBalanceReader
	completions snapshotCompletionReader
	claims      snapshotClaimReader
	windowDays  int
	logger      *zap.Logger
}

// NewLedgerService constructs the service. windowDays bounds how far back
// the completion window reaches; values below one fall back to 30.
func NewLedgerService(ledger ledgerRepository, balances snapshotBalanceReader, completions snapshotCompletionReader, claims snapshotClaimReader, windowDays int, logger *zap.Logger) *LedgerService {
	if windowDays <= 0 {
		windowDays = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		ledger:      ledger,
		balances:    balances,
		completions: completions,
		claims:      claims,
		windowDays:  windowDays,
		logger:      logger,
	}
}

// History lists a child's points history, newest first.
func (s *LedgerService) History(ctx context.Context, childID string, filter models.LedgerFilter) ([]models.LedgerEntry, error) {
	entries, err := s.ledger.List(ctx, childID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list points history")
	}
	return entries, nil
}

// Snapshot reads the child's balance, windowed completions and claims as of
// now.
func (s *LedgerService) Snapshot(ctx context.Context, childID string) (*models.LedgerSnapshot, error) {
	return s.SnapshotAt(ctx, childID, time.Now().UTC())
}

// SnapshotAt reads the snapshot with an explicit reference time, used by the
// streak calculator to anchor the completion window.
func (s *LedgerService) SnapshotAt(ctx context.Context, childID string, now time.Time) (*models.LedgerSnapshot, error) {
	balance, err := s.balances.Balance(ctx, childID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read balance")
	}

	since := now.AddDate(0, 0, -s.windowDays)
	completions, err := s.completions.ListWindow(ctx, childID, since)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read completions")
	}

	claims, err := s.claims.ListClaims(ctx, childID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read claims")
	}

	return &models.LedgerSnapshot{
		ChildID:     childID,
		Balance:     balance.Points,
		Completions: completions,
		Claims:      claims,
		WindowDays:  s.windowDays,
	}, nil
}

// WeekEntries returns the ledger rows for the week starting at weekStart.
func (s *LedgerService) WeekEntries(ctx context.Context, childID string, weekStart time.Time) ([]models.LedgerEntry, error) {
	entries, err := s.ledger.ListBetween(ctx, childID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read week entries")
	}
	return entries, nil
}
