package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

func newCompletionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCompletionRepositoryCompleteCreditsPoints(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()
	repo := NewCompletionRepository(db)

	due := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	completion := &models.TaskCompletion{
		ChildID:       "child-1",
		TaskID:        "task-1",
		DueDate:       due,
		PointsAwarded: 10,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO task_completions")).
		WithArgs(sqlmock.AnyArg(), "child-1", "task-1", due, sqlmock.AnyArg(), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET points = points + $1")).
		WithArgs(10, sqlmock.AnyArg(), "child-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO points_history")).
		WithArgs(sqlmock.AnyArg(), "child-1", 10, models.LedgerEntryTask, "Faire le lit", &completion.TaskID, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Complete(context.Background(), completion, "Faire le lit")
	require.NoError(t, err)
	require.NotEmpty(t, completion.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryCompleteDuplicate(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()
	repo := NewCompletionRepository(db)

	due := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	completion := &models.TaskCompletion{
		ChildID:       "child-1",
		TaskID:        "task-1",
		DueDate:       due,
		PointsAwarded: 10,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO task_completions")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Complete(context.Background(), completion, "Faire le lit")
	require.ErrorIs(t, err, appErrors.ErrDuplicateCompletion)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryUncompleteClampsAtZero(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()
	repo := NewCompletionRepository(db)

	due := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM task_completions")).
		WithArgs("child-1", "task-1", due).
		WillReturnRows(sqlmock.NewRows([]string{"points_awarded"}).AddRow(10))
	// Balance is below the award; only what remains gets deducted.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT points FROM children WHERE id = $1 FOR UPDATE")).
		WithArgs("child-1").
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta("SET points = points - $1")).
		WithArgs(4, sqlmock.AnyArg(), "child-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	taskID := "task-1"
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO points_history")).
		WithArgs(sqlmock.AnyArg(), "child-1", -4, models.LedgerEntryTask, "Faire le lit", &taskID, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Uncomplete(context.Background(), "child-1", "task-1", due, "Faire le lit")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRepositoryUncompleteNotFound(t *testing.T) {
	db, mock, cleanup := newCompletionRepoMock(t)
	defer cleanup()
	repo := NewCompletionRepository(db)

	due := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM task_completions")).
		WithArgs("child-1", "task-1", due).
		WillReturnRows(sqlmock.NewRows([]string{"points_awarded"}))
	mock.ExpectRollback()

	err := repo.Uncomplete(context.Background(), "child-1", "task-1", due, "Faire le lit")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
