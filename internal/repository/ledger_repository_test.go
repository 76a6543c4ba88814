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
)

func newLedgerRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestLedgerRepositoryListDefaultLimit(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "child_id", "delta", "entry_type", "reason", "task_id", "reward_id", "created_at"}).
		AddRow("le-1", "child-1", 10, models.LedgerEntryTask, "Faire le lit", nil, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM points_history")).
		WithArgs("child-1", 50).
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), "child-1", models.LedgerFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 10, entries[0].Delta)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryListFiltersByEntryType(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "child_id", "delta", "entry_type", "reason", "task_id", "reward_id", "created_at"}).
		AddRow("le-2", "child-1", -20, models.LedgerEntryReward, "Cinema", nil, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("AND entry_type = $2")).
		WithArgs("child-1", models.LedgerEntryReward, 10).
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), "child-1", models.LedgerFilter{
		EntryType: string(models.LedgerEntryReward),
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.LedgerEntryReward, entries[0].EntryType)
	require.NoError(t, mock.ExpectationsWereMet())
}
