package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jobbase/job-board/internal/application"
	"github.com/jobbase/job-board/internal/middleware"
	"github.com/jobbase/job-board/internal/ownership"
	"github.com/jobbase/job-board/internal/server"
)

type jobAuthorizer interface {
	Authorize(ctx context.Context, callerID, jobID string) error
}

type applicantStore interface {
	ListForJob(ctx context.Context, jobID string) ([]application.Application, error)
	UpdateStatus(ctx context.Context, jobID, applicationID string, status application.Status) (application.Application, error)
}

// ApplicantsHandler lists a job's applicants and moves them between pipeline stages.
// Both require the caller to own the job, anything else looks like a missing job.
func ApplicantsHandler(svr server.Server, guard jobAuthorizer, appRepo applicantStore) http.HandlerFunc {
	return employerRoute(svr, func(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
		switch r.Method {
		case http.MethodGet:
			jobID := strings.TrimSpace(r.URL.Query().Get("job_id"))
			if jobID == "" {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Missing job_id query parameter"})
				return
			}
			if !authorizeJob(svr, guard, w, r, id, jobID) {
				return
			}
			applicants, err := appRepo.ListForJob(r.Context(), jobID)
			if err != nil {
				svr.Log(err, fmt.Sprintf("unable to list applicants for job %s", jobID))
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Server Error"})
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"applicants": applicants})
		case http.MethodPut:
			rq := application.StatusUpdateRq{}
			if err := decodeJSON(r, &rq); err != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid request body"})
				return
			}
			rq.ApplicantID = strings.TrimSpace(rq.ApplicantID)
			rq.JobID = strings.TrimSpace(rq.JobID)
			if rq.ApplicantID == "" || rq.JobID == "" || strings.TrimSpace(rq.Status) == "" {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Missing applicant_id, job_id, or status"})
				return
			}
			status, err := application.ParseStatus(rq.Status)
			if err != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{
					"message": err.Error(),
					"allowed": application.ValidStatuses,
				})
				return
			}
			if !authorizeJob(svr, guard, w, r, id, rq.JobID) {
				return
			}
			updated, err := appRepo.UpdateStatus(r.Context(), rq.JobID, rq.ApplicantID, status)
			if errors.Is(err, ownership.ErrNotFoundOrDenied) {
				svr.JSON(w, http.StatusNotFound, map[string]interface{}{"message": "Applicant not found or status update failed"})
				return
			}
			if err != nil {
				svr.Log(err, fmt.Sprintf("unable to update status of applicant %s", rq.ApplicantID))
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Server Error"})
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{
				"message":          "Status updated successfully",
				"updatedApplicant": updated,
			})
		default:
			svr.JSON(w, http.StatusMethodNotAllowed, nil)
		}
	})
}

func authorizeJob(svr server.Server, guard jobAuthorizer, w http.ResponseWriter, r *http.Request, id middleware.Identity, jobID string) bool {
	err := guard.Authorize(r.Context(), id.ID, jobID)
	if errors.Is(err, ownership.ErrNotFoundOrDenied) {
		svr.JSON(w, http.StatusNotFound, map[string]interface{}{"message": "Job not found or access denied"})
		return false
	}
	if err != nil {
		svr.Log(err, fmt.Sprintf("unable to check ownership of job %s", jobID))
		svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Server Error"})
		return false
	}
	return true
}
