package company

import (
	"errors"
	"time"
)

var (
	ErrNoCompany        = errors.New("no company linked to this employer")
	ErrEmployerNotFound = errors.New("employer record not found")
	ErrEmptyCompanyName = errors.New("company name cannot be empty")
)

type Company struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Website     string    `json:"website"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Size        string    `json:"size"`
	LogoURL     string    `json:"logo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CompanyRqUpdate lists the fields an employer may edit. id and created_at are never taken from the request.
type CompanyRqUpdate struct {
	Name        *string `json:"name"`
	Website     *string `json:"website"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Size        *string `json:"size"`
	LogoURL     *string `json:"logo_url"`
}

// NameChange records an employer whose cached company name was rewritten by SyncEmployerNames
type NameChange struct {
	EmployerID string `json:"employer_id"`
	OldName    string `json:"old_name"`
	NewName    string `json:"new_name"`
}
