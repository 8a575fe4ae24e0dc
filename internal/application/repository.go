package application

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jobbase/job-board/internal/database"
	"github.com/jobbase/job-board/internal/ownership"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindByJobAndEmail returns sql.ErrNoRows when the candidate has not applied yet
func (r *Repository) FindByJobAndEmail(ctx context.Context, jobID, email string) (Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, job_id, candidate_name, candidate_email, resume_url, status, applied_at
	FROM applications WHERE job_id = $1 AND candidate_email = $2`, jobID, NormaliseEmail(email))
	return scanApplication(row)
}

// CreateOrConflict stores a new pending application. A second application for the same
// job and email returns ErrAlreadyApplied whether the lookup or the unique index catches it.
func (r *Repository) CreateOrConflict(ctx context.Context, rq ApplicationRq) (Application, error) {
	rq.CandidateEmail = NormaliseEmail(rq.CandidateEmail)
	rq.CandidateName = strings.TrimSpace(rq.CandidateName)
	_, err := r.FindByJobAndEmail(ctx, rq.JobID, rq.CandidateEmail)
	if err == nil {
		return Application{}, ErrAlreadyApplied
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Application{}, errors.Wrap(err, "unable to look up existing application")
	}
	row := r.db.QueryRowContext(ctx, `INSERT INTO applications (id, job_id, candidate_name, candidate_email, resume_url, status, applied_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	RETURNING id, job_id, candidate_name, candidate_email, resume_url, status, applied_at`,
		uuid.New().String(),
		rq.JobID,
		rq.CandidateName,
		rq.CandidateEmail,
		strings.TrimSpace(rq.ResumeURL),
		string(StatusPending),
	)
	a, err := scanApplication(row)
	if database.IsUniqueViolation(err) {
		return Application{}, ErrAlreadyApplied
	}
	if err != nil {
		return Application{}, errors.Wrap(err, "unable to insert application")
	}
	return a, nil
}

func (r *Repository) ListForJob(ctx context.Context, jobID string) ([]Application, error) {
	res := make([]Application, 0)
	rows, err := r.db.QueryContext(ctx, `SELECT id, job_id, candidate_name, candidate_email, resume_url, status, applied_at
	FROM applications WHERE job_id = $1 ORDER BY applied_at DESC`, jobID)
	if err != nil {
		return res, err
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return res, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// UpdateStatus only touches the row when the application belongs to jobID
func (r *Repository) UpdateStatus(ctx context.Context, jobID, applicationID string, status Status) (Application, error) {
	if _, err := uuid.Parse(applicationID); err != nil {
		return Application{}, ownership.ErrNotFoundOrDenied
	}
	row := r.db.QueryRowContext(ctx, `UPDATE applications SET status = $1 WHERE id = $2 AND job_id = $3
	RETURNING id, job_id, candidate_name, candidate_email, resume_url, status, applied_at`, string(status), applicationID, jobID)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, ownership.ErrNotFoundOrDenied
	}
	return a, err
}

func (r *Repository) CountForEmployer(ctx context.Context, employerID string) (int, error) {
	var c int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM applications a JOIN jobs j ON j.id = a.job_id WHERE j.employer_id = $1`, employerID).Scan(&c)
	return c, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(s scanner) (Application, error) {
	var a Application
	var status sql.NullString
	if err := s.Scan(&a.ID, &a.JobID, &a.CandidateName, &a.CandidateEmail, &a.ResumeURL, &status, &a.AppliedAt); err != nil {
		return Application{}, err
	}
	a.Status = StatusFromStored(status.String)
	return a, nil
}
