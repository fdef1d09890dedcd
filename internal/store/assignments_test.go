package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/undantag/internal/models"
)

func newMockStore(t *testing.T) (*BaseStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &BaseStore{DB: sqlx.NewDb(db, "postgres")}, mock
}

func strPtr(s string) *string { return &s }

func TestAssignEmployeesCommits(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE exception_assignments\s+SET\s+status = 'active'.*emp_code IN \(\$4, \$5\)`).
		WithArgs(int64(1000), "admin", int64(42), "E001", "E002").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	prep := mock.ExpectPrepare(`INSERT INTO exception_assignments`)
	prep.ExpectQuery().
		WithArgs(int64(42), "E001", int64(1000), "admin", int64(42), "E001").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	prep.ExpectQuery().
		WithArgs(int64(42), "E002", int64(1000), "admin", int64(42), "E002").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	res, err := s.AssignEmployees(context.Background(), 42, []string{"E001", "E002"}, strPtr("admin"), 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reactivated)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, []int64{5, 11}, res.AssignmentIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignEmployeesRollsBackOnReactivationError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE exception_assignments`).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := s.AssignEmployees(context.Background(), 42, []string{"E001"}, nil, 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignEmployeesRollsBackOnInsertError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE exception_assignments`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	prep := mock.ExpectPrepare(`INSERT INTO exception_assignments`)
	prep.ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	prep.ExpectQuery().WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	res, err := s.AssignEmployees(context.Background(), 42, []string{"E001", "E002"}, nil, 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E002")
	assert.Zero(t, res.Inserted, "no partial result on failure")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignEmployeesReportsRollbackFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE exception_assignments`).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback().WillReturnError(errors.New("bad connection"))

	_, err := s.AssignEmployees(context.Background(), 42, []string{"E001"}, nil, 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
	assert.Contains(t, err.Error(), "bad connection")
}

func TestAssignEmployeesEmptyDoesNotTouchDB(t *testing.T) {
	s, mock := newMockStore(t)

	res, err := s.AssignEmployees(context.Background(), 42, nil, nil, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.NotNil(t, res.AssignmentIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeEmployees(t *testing.T) {
	t.Run("commits and counts", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE exception_assignments\s+SET\s+status = 'revoked'.*emp_code IN \(\$5, \$6\)\s+AND status = 'active'`).
			WithArgs(int64(1000), "admin", nil, int64(42), "E001", "E002").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		res, err := s.RevokeEmployees(context.Background(), 42, []string{"E001", "E002"}, strPtr("admin"), nil, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Updated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE exception_assignments`).
			WillReturnError(errors.New("lock timeout"))
		mock.ExpectRollback()

		_, err := s.RevokeEmployees(context.Background(), 42, []string{"E001"}, nil, strPtr("x"), 1000)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lock timeout")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		_, err := s.RevokeEmployees(context.Background(), 42, []string{"E001"}, nil, nil, 1000)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListExceptionsRebindsPlaceholders(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE d.risk_level = \$1\s+ORDER BY d.name DESC, d.exception_id ASC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs("High", int64(20), int64(40)).
		WillReturnRows(sqlmock.NewRows([]string{"exception_id", "code", "name", "risk_level", "category_id", "is_active", "created_at", "assignees_active", "last_assigned_at", "tickets_count"}).
			AddRow(7, "USB-FIN", "Allow USB", "High", nil, true, 100, 3, 200, 1))

	rows, err := s.ListExceptions(context.Background(), models.ExceptionFilter{RiskLevel: "High"}, ParseSort("name:desc"), 20, 40)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].AssigneesActive)
	require.NotNil(t, rows[0].LastAssignedAt)
	assert.Equal(t, int64(200), *rows[0].LastAssignedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
