package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

func newRewardRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRewardRepositoryListByParentStableOrder(t *testing.T) {
	db, mock, cleanup := newRewardRepoMock(t)
	defer cleanup()
	repo := NewRewardRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "parent_id", "label", "cost_points", "icon", "created_at", "updated_at"}).
		AddRow("rw-a", "par-1", "Cinema", 20, "🎬", now, now).
		AddRow("rw-b", "par-1", "Toy", 50, "🧸", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC, id ASC")).
		WithArgs("par-1").
		WillReturnRows(rows)

	rewards, err := repo.ListByParent(context.Background(), "par-1")
	require.NoError(t, err)
	require.Len(t, rewards, 2)
	require.Equal(t, "rw-a", rewards[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRewardRepositoryClaimSuccess(t *testing.T) {
	db, mock, cleanup := newRewardRepoMock(t)
	defer cleanup()
	repo := NewRewardRepository(db)

	reward := &models.Reward{ID: "rw-1", Label: "Cinema", CostPoints: 20}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM reward_claims WHERE child_id = $1 AND reward_id = $2)")).
		WithArgs("child-1", "rw-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("SET points = points - $1")).
		WithArgs(20, sqlmock.AnyArg(), "child-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reward_claims")).
		WithArgs(sqlmock.AnyArg(), "child-1", "rw-1", 20, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO points_history")).
		WithArgs(sqlmock.AnyArg(), "child-1", -20, models.LedgerEntryReward, "Cinema", nil, &reward.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	claim, err := repo.Claim(context.Background(), "child-1", reward)
	require.NoError(t, err)
	require.Equal(t, "rw-1", claim.RewardID)
	require.Equal(t, 20, claim.CostPaid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRewardRepositoryClaimInsufficientPoints(t *testing.T) {
	db, mock, cleanup := newRewardRepoMock(t)
	defer cleanup()
	repo := NewRewardRepository(db)

	reward := &models.Reward{ID: "rw-1", Label: "Toy", CostPoints: 50}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("child-1", "rw-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	// Conditional decrement touches no row when the balance is short.
	mock.ExpectExec(regexp.QuoteMeta("SET points = points - $1")).
		WithArgs(50, sqlmock.AnyArg(), "child-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	claim, err := repo.Claim(context.Background(), "child-1", reward)
	require.ErrorIs(t, err, appErrors.ErrInsufficientPoints)
	require.Nil(t, claim)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRewardRepositoryClaimAlreadyClaimed(t *testing.T) {
	db, mock, cleanup := newRewardRepoMock(t)
	defer cleanup()
	repo := NewRewardRepository(db)

	reward := &models.Reward{ID: "rw-1", Label: "Cinema", CostPoints: 20}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("child-1", "rw-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	claim, err := repo.Claim(context.Background(), "child-1", reward)
	require.ErrorIs(t, err, appErrors.ErrAlreadyClaimed)
	require.Nil(t, claim)
	require.NoError(t, mock.ExpectationsWereMet())
}
