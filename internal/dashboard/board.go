// Package dashboard is the Go client for the employer applicant board. It is imported by
// programs driving the job board api on an employer's behalf, not by the server itself.
package dashboard

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jobbase/job-board/internal/application"
)

var ErrUnknownApplicant = errors.New("applicant is not on this board")

// StatusUpdater persists a status change and reports whether the server accepted it
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, jobID, applicantID string, status application.Status) error
}

// Board is an employer's local view of the applicants of one job. Status changes are
// shown immediately and undone when the server rejects them.
type Board struct {
	mu         sync.Mutex
	jobID      string
	applicants map[string]application.Application
	updater    StatusUpdater
}

func NewBoard(jobID string, applicants []application.Application, updater StatusUpdater) *Board {
	b := &Board{
		jobID:      jobID,
		applicants: make(map[string]application.Application, len(applicants)),
		updater:    updater,
	}
	for _, a := range applicants {
		a.Status = application.StatusFromStored(string(a.Status))
		b.applicants[a.ID] = a
	}
	return b
}

func (b *Board) Status(applicantID string) (application.Status, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.applicants[applicantID]
	return a.Status, ok
}

// Filter returns the applicants in the given status, newest first. An empty status returns all of them.
func (b *Board) Filter(status application.Status) []application.Application {
	b.mu.Lock()
	defer b.mu.Unlock()
	res := make([]application.Application, 0, len(b.applicants))
	for _, a := range b.applicants {
		if status == "" || a.Status == status {
			res = append(res, a)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].AppliedAt.After(res[j].AppliedAt)
	})
	return res
}

// SetStatus applies the new status locally, then asks the server. On failure the
// status held before the call is put back, unless a later change already replaced it.
func (b *Board) SetStatus(ctx context.Context, applicantID, status string) error {
	next, err := application.ParseStatus(status)
	if err != nil {
		return err
	}
	b.mu.Lock()
	a, ok := b.applicants[applicantID]
	if !ok {
		b.mu.Unlock()
		return ErrUnknownApplicant
	}
	previous := a.Status
	a.Status = next
	b.applicants[applicantID] = a
	b.mu.Unlock()

	if err := b.updater.UpdateStatus(ctx, b.jobID, applicantID, next); err != nil {
		b.mu.Lock()
		if cur, ok := b.applicants[applicantID]; ok && cur.Status == next {
			cur.Status = previous
			b.applicants[applicantID] = cur
		}
		b.mu.Unlock()
		return err
	}
	return nil
}
