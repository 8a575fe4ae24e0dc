package company

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
)

// EmployerRef is the part of an employer the linker reads
type EmployerRef struct {
	ID          string
	CompanyName string
	CompanyID   sql.NullString
}

type Employers interface {
	CompanyRef(ctx context.Context, employerID string) (EmployerRef, error)
	LinkCompany(ctx context.Context, employerID, companyID string) error
	UpdateCompanyName(ctx context.Context, employerID, name string) error
}

type Companies interface {
	GetByID(ctx context.Context, id string) (Company, error)
	FindByName(ctx context.Context, name string) (Company, error)
	CreateOrGetByName(ctx context.Context, name string) (Company, error)
	ListNameMismatches(ctx context.Context) ([]NameChange, error)
}

// Linker attaches employers to company records the first time their profile is read
type Linker struct {
	employers Employers
	companies Companies
}

func NewLinker(employers Employers, companies Companies) Linker {
	return Linker{employers: employers, companies: companies}
}

// EnsureLinked returns the employer's company, finding or creating it by the employer's
// company name and storing the link when there is none yet. Two concurrent first calls
// settle on the same company row; the link itself is last write wins.
func (l Linker) EnsureLinked(ctx context.Context, employerID string) (Company, error) {
	ref, err := l.employers.CompanyRef(ctx, employerID)
	if errors.Is(err, sql.ErrNoRows) {
		return Company{}, ErrEmployerNotFound
	}
	if err != nil {
		return Company{}, errors.Wrap(err, "unable to read employer")
	}
	if ref.CompanyID.Valid {
		c, err := l.companies.GetByID(ctx, ref.CompanyID.String)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return Company{}, errors.Wrap(err, "unable to read linked company")
		}
	}
	name := strings.TrimSpace(ref.CompanyName)
	if name == "" {
		return Company{}, ErrNoCompany
	}
	c, err := l.companies.FindByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		c, err = l.companies.CreateOrGetByName(ctx, name)
	}
	if err != nil {
		return Company{}, errors.Wrapf(err, "unable to find or create company %q", name)
	}
	if err := l.employers.LinkCompany(ctx, employerID, c.ID); err != nil {
		return Company{}, errors.Wrap(err, "unable to link company to employer")
	}
	return c, nil
}

// LinkedCompanyID returns the id of the company already linked to the employer, ErrNoCompany when there is none
func (l Linker) LinkedCompanyID(ctx context.Context, employerID string) (string, error) {
	ref, err := l.employers.CompanyRef(ctx, employerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrEmployerNotFound
	}
	if err != nil {
		return "", err
	}
	if !ref.CompanyID.Valid || ref.CompanyID.String == "" {
		return "", ErrNoCompany
	}
	return ref.CompanyID.String, nil
}

// SyncEmployerNames copies each linked company's name onto its employers where they differ
func (l Linker) SyncEmployerNames(ctx context.Context) ([]NameChange, error) {
	mismatches, err := l.companies.ListNameMismatches(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list employer company names")
	}
	changed := make([]NameChange, 0, len(mismatches))
	for _, m := range mismatches {
		if err := l.employers.UpdateCompanyName(ctx, m.EmployerID, m.NewName); err != nil {
			return changed, errors.Wrapf(err, "unable to update company name for employer %s", m.EmployerID)
		}
		changed = append(changed, m)
	}
	return changed, nil
}
