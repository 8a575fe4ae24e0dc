package ownership

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFoundOrDenied is returned when the job does not exist or belongs to someone else.
// Callers can not tell the two apart.
var ErrNotFoundOrDenied = errors.New("job not found or access denied")

// OwnerLookup returns the id of the employer that owns a job, sql.ErrNoRows when there is no such job
type OwnerLookup interface {
	OwnerID(ctx context.Context, jobID string) (string, error)
}

type Guard struct {
	jobs OwnerLookup
}

func NewGuard(jobs OwnerLookup) Guard {
	return Guard{jobs: jobs}
}

// Authorize checks that callerID owns jobID. It only reads.
func (g Guard) Authorize(ctx context.Context, callerID, jobID string) error {
	if callerID == "" {
		return ErrNotFoundOrDenied
	}
	if _, err := uuid.Parse(jobID); err != nil {
		return ErrNotFoundOrDenied
	}
	owner, err := g.jobs.OwnerID(ctx, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFoundOrDenied
	}
	if err != nil {
		return err
	}
	if owner != callerID {
		return ErrNotFoundOrDenied
	}
	return nil
}
