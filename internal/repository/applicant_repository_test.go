package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rahmah-exchange/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestApplicantRepository_ExistsByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicantRepository(db)
	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM applicants WHERE tenant_id = \$1 AND lower\(email\) = \$2\)`).
		WithArgs(tenantID, "amina@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), tenantID, "Amina@Example.org")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantRepository_GetByID(t *testing.T) {
	t.Run("Not found returns nil", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewApplicantRepository(db)
		tenantID, id := uuid.New(), uuid.New()

		mock.ExpectQuery(`SELECT .* FROM applicants WHERE id = \$1 AND tenant_id = \$2`).
			WithArgs(id, tenantID).
			WillReturnRows(sqlmock.NewRows(applicantColumns))

		applicant, err := repo.GetByID(context.Background(), tenantID, id)

		require.NoError(t, err)
		assert.Nil(t, applicant)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestApplicantRepository_UpdateStatus(t *testing.T) {
	t.Run("Updates one row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewApplicantRepository(db)
		id := uuid.New()

		mock.ExpectExec(`UPDATE applicants SET status = \$2`).
			WithArgs(id, domain.StatusApproved).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateStatus(context.Background(), id, domain.StatusApproved))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing row is not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewApplicantRepository(db)
		id := uuid.New()

		mock.ExpectExec(`UPDATE applicants SET status = \$2`).
			WithArgs(id, domain.StatusRejected).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(context.Background(), id, domain.StatusRejected)

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestApplicantRepository_UpdateFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicantRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE applicants SET city = \$1, household_size = \$2, updated_at = NOW\(\) WHERE id = \$3`).
		WithArgs("Dearborn", 3, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateFields(context.Background(), id, map[string]any{
		"household_size": 3,
		"city":           "Dearborn",
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantRepository_CountByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicantRepository(db)
	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM applicants`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("Pending", 4).
			AddRow("Approved", 2))

	counts, err := repo.CountByStatus(context.Background(), tenantID)

	require.NoError(t, err)
	assert.Len(t, counts, len(domain.AllCaseStatuses))
	assert.Equal(t, int64(4), counts[domain.StatusPending])
	assert.Equal(t, int64(2), counts[domain.StatusApproved])
	assert.Equal(t, int64(0), counts[domain.StatusRejected])
}
