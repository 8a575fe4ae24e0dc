package company

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
)

const companyColumns = `id, name, slug, website, description, location, size, logo_url, created_at, updated_at`

var textPolicy = bluemonday.StrictPolicy()

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

// GetByID returns sql.ErrNoRows when there is no such company
func (r *Repository) GetByID(ctx context.Context, id string) (Company, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Company{}, sql.ErrNoRows
	}
	return scanCompany(r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
}

// FindByName matches the exact name, sql.ErrNoRows when nothing matches
func (r *Repository) FindByName(ctx context.Context, name string) (Company, error) {
	return scanCompany(r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE name = $1`, name))
}

// CreateOrGetByName inserts a company with only a name, or returns the one already holding it
func (r *Repository) CreateOrGetByName(ctx context.Context, name string) (Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Company{}, ErrEmptyCompanyName
	}
	row := r.db.QueryRowContext(ctx, `INSERT INTO companies (id, name, slug, created_at, updated_at)
	VALUES ($1, $2, $3, NOW(), NOW())
	ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
	RETURNING `+companyColumns, uuid.New().String(), name, slug.Make(name))
	return scanCompany(row)
}

func (r *Repository) Update(ctx context.Context, id string, rq CompanyRqUpdate) (Company, error) {
	var slugValue *string
	if rq.Name != nil {
		n := strings.TrimSpace(textPolicy.Sanitize(*rq.Name))
		if n == "" {
			return Company{}, ErrEmptyCompanyName
		}
		s := slug.Make(n)
		rq.Name = &n
		slugValue = &s
	}
	for _, f := range []**string{&rq.Description, &rq.Location, &rq.Size} {
		if *f != nil {
			v := strings.TrimSpace(textPolicy.Sanitize(**f))
			*f = &v
		}
	}
	// urls are stored as given, they are escaped when rendered
	for _, f := range []**string{&rq.Website, &rq.LogoURL} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
	row := r.db.QueryRowContext(ctx, `UPDATE companies SET
		name = COALESCE($1, name),
		slug = COALESCE($2, slug),
		website = COALESCE($3, website),
		description = COALESCE($4, description),
		location = COALESCE($5, location),
		size = COALESCE($6, size),
		logo_url = COALESCE($7, logo_url),
		updated_at = NOW()
	WHERE id = $8 RETURNING `+companyColumns,
		rq.Name,
		slugValue,
		rq.Website,
		rq.Description,
		rq.Location,
		rq.Size,
		rq.LogoURL,
		id,
	)
	return scanCompany(row)
}

// ListNameMismatches finds employers whose company_name no longer matches their linked company
func (r *Repository) ListNameMismatches(ctx context.Context) ([]NameChange, error) {
	res := make([]NameChange, 0)
	rows, err := r.db.QueryContext(ctx, `SELECT e.id, e.company_name, c.name
	FROM employers e JOIN companies c ON c.id = e.company_id
	WHERE e.company_name IS DISTINCT FROM c.name
	ORDER BY e.id`)
	if err != nil {
		return res, err
	}
	defer rows.Close()
	for rows.Next() {
		var nc NameChange
		if err := rows.Scan(&nc.EmployerID, &nc.OldName, &nc.NewName); err != nil {
			return res, err
		}
		res = append(res, nc)
	}
	return res, rows.Err()
}

// ListWithoutDescription returns companies that have a website but no description yet
func (r *Repository) ListWithoutDescription(ctx context.Context) ([]Company, error) {
	res := make([]Company, 0)
	rows, err := r.db.QueryContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE description = '' AND website <> '' ORDER BY created_at`)
	if err != nil {
		return res, err
	}
	defer rows.Close()
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Website, &c.Description, &c.Location, &c.Size, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return res, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func scanCompany(row *sql.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Website, &c.Description, &c.Location, &c.Size, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
