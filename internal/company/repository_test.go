package company

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "name", "slug", "website", "description", "location", "size", "logo_url", "created_at", "updated_at"}

const testCompanyID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestCreateOrGetByName(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO companies (.+) ON CONFLICT \(name\) DO UPDATE SET name = EXCLUDED.name RETURNING`).
		WithArgs(sqlmock.AnyArg(), "Acme Labs", "acme-labs").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(testCompanyID, "Acme Labs", "acme-labs", "", "", "", "", "", now, now))

	c, err := repo.CreateOrGetByName(context.Background(), "  Acme Labs ")
	require.NoError(t, err)
	assert.Equal(t, testCompanyID, c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = repo.CreateOrGetByName(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyCompanyName)
}

func TestGetByIDMalformed(t *testing.T) {
	repo, mock := newMock(t)
	_, err := repo.GetByID(context.Background(), "12")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSanitizesText(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()
	desc := `We build <b>tools</b><script>alert(1)</script>`
	logo := " https://cdn.test/logo.png?w=1&h=2 "
	mock.ExpectQuery(`UPDATE companies SET (.+) updated_at = NOW\(\) WHERE id = \$8`).
		WithArgs(nil, nil, nil, "We build tools", nil, nil, "https://cdn.test/logo.png?w=1&h=2", testCompanyID).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(testCompanyID, "Acme", "acme", "", "We build tools", "", "", "https://cdn.test/logo.png?w=1&h=2", now, now))

	c, err := repo.Update(context.Background(), testCompanyID, CompanyRqUpdate{Description: &desc, LogoURL: &logo})
	require.NoError(t, err)
	assert.Equal(t, "We build tools", c.Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListNameMismatches(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`WHERE e.company_name IS DISTINCT FROM c.name`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_name", "name"}).AddRow("e1", "acme", "Acme"))

	res, err := repo.ListNameMismatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []NameChange{{EmployerID: "e1", OldName: "acme", NewName: "Acme"}}, res)
}
