package application

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jobbase/job-board/internal/ownership"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJobID = "0f8fad5b-d9cb-469f-a165-70867728950e"

var applicationColumns = []string{"id", "job_id", "candidate_name", "candidate_email", "resume_url", "status", "applied_at"}

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestCreateOrConflictInserts(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM applications WHERE job_id = \$1 AND candidate_email = \$2`).
		WithArgs(testJobID, "ada@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO applications`).
		WithArgs(sqlmock.AnyArg(), testJobID, "Ada", "ada@example.com", "https://cv.test/ada.pdf", "PENDING").
		WillReturnRows(sqlmock.NewRows(applicationColumns).
			AddRow("a1", testJobID, "Ada", "ada@example.com", "https://cv.test/ada.pdf", "PENDING", now))

	a, err := repo.CreateOrConflict(context.Background(), ApplicationRq{
		JobID:          testJobID,
		CandidateName:  " Ada ",
		CandidateEmail: " Ada@Example.com",
		ResumeURL:      "https://cv.test/ada.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, a.Status)
	assert.Equal(t, "ada@example.com", a.CandidateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrConflictPrecheck(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`SELECT (.+) FROM applications`).
		WithArgs(testJobID, "ada@example.com").
		WillReturnRows(sqlmock.NewRows(applicationColumns).
			AddRow("a1", testJobID, "Ada", "ada@example.com", "https://cv.test/ada.pdf", "REVIEWED", time.Now()))

	_, err := repo.CreateOrConflict(context.Background(), ApplicationRq{JobID: testJobID, CandidateName: "Ada", CandidateEmail: "ADA@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyApplied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrConflictUniqueViolation(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`SELECT (.+) FROM applications`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO applications`).WillReturnError(&pq.Error{Code: "23505", Constraint: "applications_job_id_candidate_email_idx"})

	_, err := repo.CreateOrConflict(context.Background(), ApplicationRq{JobID: testJobID, CandidateName: "Ada", CandidateEmail: "ada@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyApplied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrConflictStoreFailure(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`SELECT (.+) FROM applications`).WillReturnError(sql.ErrConnDone)

	_, err := repo.CreateOrConflict(context.Background(), ApplicationRq{JobID: testJobID, CandidateEmail: "ada@example.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyApplied)
}

func TestListForJobDefaultsUnknownStatus(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM applications WHERE job_id = \$1 ORDER BY applied_at DESC`).
		WithArgs(testJobID).
		WillReturnRows(sqlmock.NewRows(applicationColumns).
			AddRow("a2", testJobID, "Grace", "grace@example.com", "r2", nil, now).
			AddRow("a1", testJobID, "Ada", "ada@example.com", "r1", "shortlisted", now.Add(-time.Hour)))

	apps, err := repo.ListForJob(context.Background(), testJobID)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, StatusPending, apps[0].Status)
	assert.Equal(t, StatusShortlisted, apps[1].Status)
}

func TestUpdateStatus(t *testing.T) {
	const appID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	t.Run("scoped to job", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(`UPDATE applications SET status = \$1 WHERE id = \$2 AND job_id = \$3`).
			WithArgs("SHORTLISTED", appID, testJobID).
			WillReturnRows(sqlmock.NewRows(applicationColumns).
				AddRow(appID, testJobID, "Ada", "ada@example.com", "r1", "SHORTLISTED", time.Now()))

		a, err := repo.UpdateStatus(context.Background(), testJobID, appID, StatusShortlisted)
		require.NoError(t, err)
		assert.Equal(t, StatusShortlisted, a.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("same status is a no-op success", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(`UPDATE applications SET status = \$1 WHERE id = \$2 AND job_id = \$3`).
			WithArgs("REVIEWED", appID, testJobID).
			WillReturnRows(sqlmock.NewRows(applicationColumns).
				AddRow(appID, testJobID, "Ada", "ada@example.com", "r1", "REVIEWED", time.Now()))

		a, err := repo.UpdateStatus(context.Background(), testJobID, appID, StatusReviewed)
		require.NoError(t, err)
		assert.Equal(t, StatusReviewed, a.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("application of another job", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(`UPDATE applications`).WillReturnRows(sqlmock.NewRows(applicationColumns))

		_, err := repo.UpdateStatus(context.Background(), testJobID, appID, StatusRejected)
		assert.ErrorIs(t, err, ownership.ErrNotFoundOrDenied)
	})

	t.Run("malformed id never reaches the store", func(t *testing.T) {
		repo, mock := newMock(t)
		_, err := repo.UpdateStatus(context.Background(), testJobID, "1", StatusRejected)
		assert.ErrorIs(t, err, ownership.ErrNotFoundOrDenied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCountForEmployer(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM applications a JOIN jobs j`).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	c, err := repo.CountForEmployer(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 7, c)
}
