package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jobbase/job-board/internal/job"
	"github.com/jobbase/job-board/internal/middleware"
	"github.com/jobbase/job-board/internal/ownership"
	"github.com/jobbase/job-board/internal/server"
)

type employerJobs interface {
	ListByEmployer(ctx context.Context, employerID string) ([]job.Job, error)
	Create(ctx context.Context, employerID, title, description string, lastDate time.Time) (job.Job, error)
	Update(ctx context.Context, employerID, jobID string, c job.Changes) (job.Job, error)
	Delete(ctx context.Context, employerID, jobID string) error
}

type dashboardStats interface {
	DashboardStats(ctx context.Context, employerID string) (job.Dashboard, error)
}

// EmployerJobsHandler serves the job list, partial updates and deletes for the signed in employer
func EmployerJobsHandler(svr server.Server, jobRepo employerJobs) http.HandlerFunc {
	return employerRoute(svr, func(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
		switch r.Method {
		case http.MethodGet:
			jobs, err := jobRepo.ListByEmployer(r.Context(), id.ID)
			if err != nil {
				svr.Log(err, fmt.Sprintf("unable to list jobs for employer %s", id.ID))
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Server Error"})
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
		case http.MethodPut:
			updateJob(svr, jobRepo, w, r, id)
		case http.MethodDelete:
			jobID := strings.TrimSpace(r.URL.Query().Get("id"))
			if jobID == "" {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Missing job ID"})
				return
			}
			err := jobRepo.Delete(r.Context(), id.ID, jobID)
			if errors.Is(err, ownership.ErrNotFoundOrDenied) {
				svr.JSON(w, http.StatusNotFound, map[string]interface{}{"message": "Job not found or permission denied"})
				return
			}
			if err != nil {
				svr.Log(err, fmt.Sprintf("unable to delete job %s", jobID))
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Server Error"})
				return
			}
			svr.CacheDelete(server.CacheKeyOpenJobs)
			svr.JSON(w, http.StatusOK, map[string]interface{}{"message": "Job deleted successfully"})
		default:
			svr.JSON(w, http.StatusMethodNotAllowed, nil)
		}
	})
}

func updateJob(svr server.Server, jobRepo employerJobs, w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	rq := job.JobRqUpdate{}
	if err := decodeJSON(r, &rq); err != nil {
		svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid request body"})
		return
	}
	if strings.TrimSpace(rq.ID) == "" {
		svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Missing job ID"})
		return
	}
	changes := job.Changes{Status: rq.Status}
	if rq.Title != nil {
		title := strings.TrimSpace(*rq.Title)
		if title == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Title cannot be empty"})
			return
		}
		changes.Title = &title
	}
	if rq.Description != nil {
		description := job.SanitizeDescription(*rq.Description)
		changes.Description = &description
	}
	if rq.LastDate != nil {
		lastDate, err := job.ParseDeadline(*rq.LastDate)
		if err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": err.Error()})
			return
		}
		changes.LastDate = &lastDate
	}
	updated, err := jobRepo.Update(r.Context(), id.ID, strings.TrimSpace(rq.ID), changes)
	if errors.Is(err, ownership.ErrNotFoundOrDenied) {
		svr.JSON(w, http.StatusNotFound, map[string]interface{}{"message": "Job not found or permission denied"})
		return
	}
	if err != nil {
		svr.Log(err, fmt.Sprintf("unable to update job %s", rq.ID))
		svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Server Error"})
		return
	}
	svr.CacheDelete(server.CacheKeyOpenJobs)
	svr.JSON(w, http.StatusOK, map[string]interface{}{"message": "Job updated successfully", "job": updated})
}

func CreateJobHandler(svr server.Server, jobRepo employerJobs) http.HandlerFunc {
	return employerRoute(svr, func(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
		rq := job.JobRq{}
		if err := decodeJSON(r, &rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid request body"})
			return
		}
		title := strings.TrimSpace(rq.Title)
		description := job.SanitizeDescription(rq.Description)
		if title == "" || description == "" || strings.TrimSpace(rq.LastDate) == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Missing required fields: title, description, or last_date"})
			return
		}
		lastDate, err := job.ParseDeadline(rq.LastDate)
		if err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": err.Error()})
			return
		}
		created, err := jobRepo.Create(r.Context(), id.ID, title, description, lastDate)
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to create job for employer %s", id.ID))
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Server Error"})
			return
		}
		svr.CacheDelete(server.CacheKeyOpenJobs)
		svr.JSON(w, http.StatusCreated, map[string]interface{}{"message": "Job posted successfully", "job": created})
	})
}

func DashboardHandler(svr server.Server, jobRepo dashboardStats) http.HandlerFunc {
	return employerRoute(svr, func(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
		dash, err := jobRepo.DashboardStats(r.Context(), id.ID)
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to load dashboard for employer %s", id.ID))
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Server Error"})
			return
		}
		svr.JSON(w, http.StatusOK, dash)
	})
}
