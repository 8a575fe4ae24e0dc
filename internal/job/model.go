package job

import (
	"errors"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
)

const (
	StatusLabelActive = "Active"
	StatusLabelClosed = "Closed"

	defaultCompanyName = "Confidential"
	defaultLocation    = "Remote"
	defaultCompanySize = "N/A"

	deadlineLayout = "2006-01-02"
)

var ErrInvalidDeadline = errors.New("last_date must be a date formatted as YYYY-MM-DD")

var descriptionPolicy = bluemonday.UGCPolicy()

type Job struct {
	ID          string    `json:"id"`
	EmployerID  string    `json:"employer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	LastDate    time.Time `json:"last_date"`
	Status      bool      `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Today is the calendar day deadlines are compared against, both here and in SQL.
// Deadlines are stored as dates and read back by lib/pq as UTC midnight.
func Today(now time.Time) string {
	return now.UTC().Format(deadlineLayout)
}

// IsActive reports whether the job still takes applications: the employer has not closed it
// and the deadline day has not ended.
func (j Job) IsActive(now time.Time) bool {
	if !j.Status {
		return false
	}
	return Today(now) <= j.LastDate.Format(deadlineLayout)
}

func (j Job) Label(now time.Time) string {
	if j.IsActive(now) {
		return StatusLabelActive
	}
	return StatusLabelClosed
}

type JobRq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	LastDate    string `json:"last_date"`
}

// JobRqUpdate carries the fields an employer may change, nil fields are left as they are
type JobRqUpdate struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	LastDate    *string `json:"last_date"`
	Status      *bool   `json:"status"`
}

// Listing is a public view of an open job with its company
type Listing struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	LastDate         time.Time `json:"last_date"`
	CreatedAt        time.Time `json:"created_at"`
	CompanyName      string    `json:"company_name"`
	LogoURL          *string   `json:"logo_url"`
	Location         string    `json:"location"`
	CompanySize      string    `json:"company_size"`
	ApplicationCount int       `json:"application_count"`
	PostedAgo        string    `json:"posted_ago"`
	ClosesIn         string    `json:"closes_in"`
}

func (l *Listing) applyDefaults(now time.Time) {
	if strings.TrimSpace(l.CompanyName) == "" {
		l.CompanyName = defaultCompanyName
	}
	if strings.TrimSpace(l.Location) == "" {
		l.Location = defaultLocation
	}
	if strings.TrimSpace(l.CompanySize) == "" {
		l.CompanySize = defaultCompanySize
	}
	if l.LogoURL != nil && *l.LogoURL == "" {
		l.LogoURL = nil
	}
	l.PostedAgo = humanizeAgo(l.CreatedAt, now)
	l.ClosesIn = humanizeClosesIn(l.LastDate, now)
}

func humanizeAgo(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// the deadline day counts, so the job closes at the end of it
func humanizeClosesIn(lastDate, now time.Time) string {
	end := lastDate.AddDate(0, 0, 1)
	if !now.Before(end) {
		return "closed"
	}
	return "closes in " + strings.TrimSpace(humanize.RelTime(now, end, "", ""))
}

// Details is the public job page: the job, who posted it and their company
type Details struct {
	Job
	StatusLabel string          `json:"status_label"`
	CompanyName *string         `json:"company_name"`
	CompanyLogo *string         `json:"company_logo"`
	Employer    DetailsEmployer `json:"employers"`
	PostedAgo   string          `json:"posted_ago"`
}

type DetailsEmployer struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CompanyName string          `json:"company_name"`
	Position    string          `json:"position"`
	Company     *DetailsCompany `json:"companies"`
}

type DetailsCompany struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Size        string `json:"size"`
	LogoURL     string `json:"logo_url"`
}

type RecentJob struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	CreatedAt        time.Time `json:"created_at"`
	Status           bool      `json:"status"`
	ApplicationCount int       `json:"applicationCount"`
}

type Stats struct {
	TotalJobs         int `json:"totalJobs"`
	TotalApplications int `json:"totalApplications"`
}

type Dashboard struct {
	Stats      Stats       `json:"stats"`
	RecentJobs []RecentJob `json:"recentJobs"`
}

// ParseDeadline accepts a plain date or an RFC3339 timestamp and keeps only the date
func ParseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(deadlineLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDeadline
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// SanitizeDescription strips anything from the rich text editor output that is not safe to render
func SanitizeDescription(s string) string {
	return strings.TrimSpace(descriptionPolicy.Sanitize(s))
}
