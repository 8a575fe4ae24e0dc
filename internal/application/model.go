package application

import (
	"errors"
	"time"
)

var (
	ErrAlreadyApplied = errors.New("You have already applied for this job.")
	ErrJobClosed      = errors.New("This job is no longer accepting applications.")
)

type Application struct {
	ID             string    `json:"id"`
	JobID          string    `json:"job_id"`
	CandidateName  string    `json:"candidate_name"`
	CandidateEmail string    `json:"candidate_email"`
	ResumeURL      string    `json:"resume_url"`
	Status         Status    `json:"status"`
	AppliedAt      time.Time `json:"applied_at"`
}

type ApplicationRq struct {
	JobID          string `json:"job_id"`
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
	ResumeURL      string `json:"resume_url"`
}

type StatusUpdateRq struct {
	ApplicantID string `json:"applicant_id"`
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
}
