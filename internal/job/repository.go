package job

import (
	"context"
	"database/sql"
	"time"

	"github.com/jobbase/job-board/internal/ownership"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const jobColumns = `id, employer_id, title, description, last_date, status, created_at`

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Changes holds a partial update, nil fields keep their stored value
type Changes struct {
	Title       *string
	Description *string
	LastDate    *time.Time
	Status      *bool
}

func (r *Repository) Create(ctx context.Context, employerID, title, description string, lastDate time.Time) (Job, error) {
	row := r.db.QueryRowContext(ctx, `INSERT INTO jobs (id, employer_id, title, description, last_date, status, created_at)
	VALUES ($1, $2, $3, $4, $5, TRUE, NOW()) RETURNING `+jobColumns,
		uuid.New().String(),
		employerID,
		title,
		description,
		lastDate,
	)
	return scanJob(row)
}

func (r *Repository) ListByEmployer(ctx context.Context, employerID string) ([]Job, error) {
	jobs := make([]Job, 0)
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE employer_id = $1 ORDER BY created_at DESC`, employerID)
	if err != nil {
		return jobs, err
	}
	defer rows.Close()
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// OwnerID returns sql.ErrNoRows when the job does not exist
func (r *Repository) OwnerID(ctx context.Context, jobID string) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT employer_id FROM jobs WHERE id = $1`, jobID).Scan(&owner)
	return owner, err
}

func (r *Repository) GetByID(ctx context.Context, jobID string) (Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return Job{}, sql.ErrNoRows
	}
	return scanJob(r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID))
}

func (r *Repository) GetForEmployer(ctx context.Context, employerID, jobID string) (Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return Job{}, ownership.ErrNotFoundOrDenied
	}
	j, err := scanJob(r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND employer_id = $2`, jobID, employerID))
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ownership.ErrNotFoundOrDenied
	}
	return j, err
}

func (r *Repository) Update(ctx context.Context, employerID, jobID string, c Changes) (Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return Job{}, ownership.ErrNotFoundOrDenied
	}
	row := r.db.QueryRowContext(ctx, `UPDATE jobs SET
		title = COALESCE($1, title),
		description = COALESCE($2, description),
		last_date = COALESCE($3::date, last_date),
		status = COALESCE($4, status)
	WHERE id = $5 AND employer_id = $6 RETURNING `+jobColumns,
		c.Title,
		c.Description,
		c.LastDate,
		c.Status,
		jobID,
		employerID,
	)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ownership.ErrNotFoundOrDenied
	}
	return j, err
}

func (r *Repository) Delete(ctx context.Context, employerID, jobID string) error {
	if _, err := uuid.Parse(jobID); err != nil {
		return ownership.ErrNotFoundOrDenied
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1 AND employer_id = $2`, jobID, employerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ownership.ErrNotFoundOrDenied
	}
	return nil
}

// ListOpen returns the newest jobs that still take applications
func (r *Repository) ListOpen(ctx context.Context, limit int) ([]Listing, error) {
	res := make([]Listing, 0)
	now := r.now()
	rows, err := r.db.QueryContext(ctx, `SELECT j.id, j.title, j.description, j.last_date, j.created_at,
		c.name, c.logo_url, c.location, c.size,
		(SELECT count(*) FROM applications a WHERE a.job_id = j.id) AS application_count
	FROM jobs j
	JOIN employers e ON e.id = j.employer_id
	LEFT JOIN companies c ON c.id = e.company_id
	WHERE j.status = TRUE AND j.last_date >= $2::date
	ORDER BY j.created_at DESC
	LIMIT $1`, limit, Today(now))
	if err != nil {
		return res, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Listing
		var name, logo, location, size sql.NullString
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.LastDate, &l.CreatedAt, &name, &logo, &location, &size, &l.ApplicationCount); err != nil {
			return res, err
		}
		l.CompanyName = name.String
		if logo.Valid {
			l.LogoURL = &logo.String
		}
		l.Location = location.String
		l.CompanySize = size.String
		l.applyDefaults(now)
		res = append(res, l)
	}
	return res, rows.Err()
}

// GetPublic returns sql.ErrNoRows when the job does not exist
func (r *Repository) GetPublic(ctx context.Context, jobID string) (Details, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return Details{}, sql.ErrNoRows
	}
	row := r.db.QueryRowContext(ctx, `SELECT j.id, j.employer_id, j.title, j.description, j.last_date, j.status, j.created_at,
		e.id, e.name, e.company_name, e.position,
		c.id, c.name, c.website, c.description, c.location, c.size, c.logo_url
	FROM jobs j
	JOIN employers e ON e.id = j.employer_id
	LEFT JOIN companies c ON c.id = e.company_id
	WHERE j.id = $1`, jobID)
	var d Details
	var cID, cName, cWebsite, cDescription, cLocation, cSize, cLogo sql.NullString
	err := row.Scan(
		&d.ID, &d.EmployerID, &d.Title, &d.Description, &d.LastDate, &d.Status, &d.CreatedAt,
		&d.Employer.ID, &d.Employer.Name, &d.Employer.CompanyName, &d.Employer.Position,
		&cID, &cName, &cWebsite, &cDescription, &cLocation, &cSize, &cLogo,
	)
	if err != nil {
		return Details{}, err
	}
	if cID.Valid {
		d.Employer.Company = &DetailsCompany{
			ID:          cID.String,
			Name:        cName.String,
			Website:     cWebsite.String,
			Description: cDescription.String,
			Location:    cLocation.String,
			Size:        cSize.String,
			LogoURL:     cLogo.String,
		}
		d.CompanyName = &d.Employer.Company.Name
		d.CompanyLogo = &d.Employer.Company.LogoURL
	}
	now := r.now()
	d.StatusLabel = d.Job.Label(now)
	d.PostedAgo = humanizeAgo(d.CreatedAt, now)
	return d, nil
}

func (r *Repository) DashboardStats(ctx context.Context, employerID string) (Dashboard, error) {
	dash := Dashboard{RecentJobs: make([]RecentJob, 0)}
	err := r.db.QueryRowContext(ctx, `SELECT
		(SELECT count(*) FROM jobs WHERE employer_id = $1),
		(SELECT count(*) FROM applications a JOIN jobs j ON j.id = a.job_id WHERE j.employer_id = $1)`, employerID).
		Scan(&dash.Stats.TotalJobs, &dash.Stats.TotalApplications)
	if err != nil {
		return dash, errors.Wrap(err, "unable to count jobs and applications")
	}
	rows, err := r.db.QueryContext(ctx, `SELECT j.id, j.title, j.created_at, j.status,
		(SELECT count(*) FROM applications a WHERE a.job_id = j.id) AS application_count
	FROM jobs j WHERE j.employer_id = $1 ORDER BY j.created_at DESC LIMIT 5`, employerID)
	if err != nil {
		return dash, errors.Wrap(err, "unable to fetch recent jobs")
	}
	defer rows.Close()
	for rows.Next() {
		var rj RecentJob
		if err := rows.Scan(&rj.ID, &rj.Title, &rj.CreatedAt, &rj.Status, &rj.ApplicationCount); err != nil {
			return dash, err
		}
		dash.RecentJobs = append(dash.RecentJobs, rj)
	}
	return dash, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(s scanner) (Job, error) {
	var j Job
	err := s.Scan(&j.ID, &j.EmployerID, &j.Title, &j.Description, &j.LastDate, &j.Status, &j.CreatedAt)
	return j, err
}
