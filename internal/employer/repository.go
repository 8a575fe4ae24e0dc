package employer

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"strings"
	"time"

	"github.com/jobbase/job-board/internal/company"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const employerColumns = `id, email, name, company_name, position, password_hash, is_email_verified, is_approved, company_id, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Repository) GetByID(ctx context.Context, id string) (Employer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Employer{}, ErrNotFound
	}
	e, err := scanEmployer(r.db.QueryRowContext(ctx, `SELECT `+employerColumns+` FROM employers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Employer{}, ErrNotFound
	}
	return e, err
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (Employer, error) {
	e, err := scanEmployer(r.db.QueryRowContext(ctx, `SELECT `+employerColumns+` FROM employers WHERE email = $1`, NormaliseEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return Employer{}, ErrNotFound
	}
	return e, err
}

// CompanyRef returns sql.ErrNoRows when the employer does not exist
func (r *Repository) CompanyRef(ctx context.Context, employerID string) (company.EmployerRef, error) {
	if _, err := uuid.Parse(employerID); err != nil {
		return company.EmployerRef{}, sql.ErrNoRows
	}
	var ref company.EmployerRef
	err := r.db.QueryRowContext(ctx, `SELECT id, company_name, company_id FROM employers WHERE id = $1`, employerID).
		Scan(&ref.ID, &ref.CompanyName, &ref.CompanyID)
	return ref, err
}

func (r *Repository) LinkCompany(ctx context.Context, employerID, companyID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE employers SET company_id = $1, updated_at = NOW() WHERE id = $2`, companyID, employerID)
	return err
}

func (r *Repository) UpdateCompanyName(ctx context.Context, employerID, name string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE employers SET company_name = $1, updated_at = NOW() WHERE id = $2`, name, employerID)
	return err
}

func (r *Repository) GetProfile(ctx context.Context, employerID string) (Profile, error) {
	if _, err := uuid.Parse(employerID); err != nil {
		return Profile{}, ErrNotFound
	}
	var p Profile
	err := r.db.QueryRowContext(ctx, `SELECT name, email, company_name, position FROM employers WHERE id = $1`, employerID).
		Scan(&p.Name, &p.Email, &p.CompanyName, &p.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (r *Repository) UpdateProfile(ctx context.Context, employerID string, rq ProfileRqUpdate) (Profile, error) {
	if rq.Empty() {
		return Profile{}, ErrNothingToUpdate
	}
	if _, err := uuid.Parse(employerID); err != nil {
		return Profile{}, ErrNotFound
	}
	var p Profile
	err := r.db.QueryRowContext(ctx, `UPDATE employers SET
		name = COALESCE($1, name),
		company_name = COALESCE($2, company_name),
		position = COALESCE($3, position),
		updated_at = NOW()
	WHERE id = $4 RETURNING name, email, company_name, position`, rq.Name, rq.CompanyName, rq.Position, employerID).
		Scan(&p.Name, &p.Email, &p.CompanyName, &p.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

// SaveOTP creates the pending employer on first request and replaces any earlier code
func (r *Repository) SaveOTP(ctx context.Context, email, code string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO employers (id, email, secret_code, otp_expires_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, NOW(), NOW())
	ON CONFLICT (email) DO UPDATE SET secret_code = EXCLUDED.secret_code, otp_expires_at = EXCLUDED.otp_expires_at, updated_at = NOW()`,
		uuid.New().String(), NormaliseEmail(email), code, expiresAt)
	return err
}

// VerifyOTP checks the code and marks the email verified. A code can be used once.
func (r *Repository) VerifyOTP(ctx context.Context, email, code string, now time.Time) (VerifyStatus, error) {
	email = NormaliseEmail(email)
	var stored sql.NullString
	var expiresAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `SELECT secret_code, otp_expires_at FROM employers WHERE email = $1`, email).Scan(&stored, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return VerifyUserNotFound, nil
	}
	if err != nil {
		return "", err
	}
	if !stored.Valid || subtle.ConstantTimeCompare([]byte(stored.String), []byte(strings.TrimSpace(code))) != 1 {
		return VerifyInvalidCode, nil
	}
	if !expiresAt.Valid || now.After(expiresAt.Time) {
		return VerifyExpired, nil
	}
	_, err = r.db.ExecContext(ctx, `UPDATE employers SET is_email_verified = TRUE, secret_code = NULL, otp_expires_at = NULL, updated_at = NOW() WHERE email = $1`, email)
	if err != nil {
		return "", err
	}
	return VerifySuccess, nil
}

// CompleteSignup fills in a verified employer's account details. An account that already
// has a password is never overwritten, a new password goes through a reset instead.
func (r *Repository) CompleteSignup(ctx context.Context, rq SignupRq, passwordHash string) (SignupStatus, error) {
	email := NormaliseEmail(rq.Email)
	var verified, registered bool
	err := r.db.QueryRowContext(ctx, `SELECT is_email_verified, password_hash <> '' FROM employers WHERE email = $1`, email).Scan(&verified, &registered)
	if errors.Is(err, sql.ErrNoRows) {
		return SignupUserNotFound, nil
	}
	if err != nil {
		return "", err
	}
	if registered {
		return SignupAlreadyComplete, nil
	}
	if !verified {
		return SignupNotVerified, nil
	}
	res, err := r.db.ExecContext(ctx, `UPDATE employers SET password_hash = $1, name = $2, company_name = $3, position = $4, updated_at = NOW() WHERE email = $5 AND password_hash = ''`,
		passwordHash,
		strings.TrimSpace(rq.Name),
		strings.TrimSpace(rq.CompanyName),
		strings.TrimSpace(rq.Position),
		email,
	)
	if err != nil {
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return SignupAlreadyComplete, nil
	}
	return SignupOK, nil
}

func scanEmployer(row *sql.Row) (Employer, error) {
	var e Employer
	var companyID sql.NullString
	err := row.Scan(&e.ID, &e.Email, &e.Name, &e.CompanyName, &e.Position, &e.PasswordHash, &e.IsEmailVerified, &e.IsApproved, &companyID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Employer{}, err
	}
	if companyID.Valid {
		e.CompanyID = &companyID.String
	}
	return e, nil
}

// ListUnlinked returns employers that typed a company name but were never linked to a company row
func (r *Repository) ListUnlinked(ctx context.Context) ([]string, error) {
	ids := make([]string, 0)
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM employers WHERE company_id IS NULL AND TRIM(COALESCE(company_name, '')) <> '' ORDER BY created_at`)
	if err != nil {
		return ids, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
