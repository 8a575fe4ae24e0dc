package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jobbase/job-board/internal/company"
	"github.com/jobbase/job-board/internal/employer"
	"github.com/jobbase/job-board/internal/meta"
	"github.com/jobbase/job-board/internal/middleware"
	"github.com/jobbase/job-board/internal/server"
)

type profileStore interface {
	GetProfile(ctx context.Context, employerID string) (employer.Profile, error)
	UpdateProfile(ctx context.Context, employerID string, rq employer.ProfileRqUpdate) (employer.Profile, error)
}

type companyLinker interface {
	EnsureLinked(ctx context.Context, employerID string) (company.Company, error)
	LinkedCompanyID(ctx context.Context, employerID string) (string, error)
	SyncEmployerNames(ctx context.Context) ([]company.NameChange, error)
}

type syncMarker interface {
	SetTime(ctx context.Context, key string, t time.Time) error
}

type companyUpdater interface {
	Update(ctx context.Context, id string, rq company.CompanyRqUpdate) (company.Company, error)
}

func EmployerProfileHandler(svr server.Server, profiles profileStore) http.HandlerFunc {
	return employerRoute(svr, func(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
		switch r.Method {
		case http.MethodGet:
			p, err := profiles.GetProfile(r.Context(), id.ID)
			if errors.Is(err, employer.ErrNotFound) {
				svr.JSON(w, http.StatusNotFound, map[string]interface{}{"message": "Employer profile record not found."})
				return
			}
			if err != nil {
				svr.Log(err, fmt.Sprintf("unable to read profile of employer %s", id.ID))
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Server Error"})
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"profile": p})
		case http.MethodPut:
			rq := employer.ProfileRqUpdate{}
			if err := decodeJSON(r, &rq); err != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid request body"})
				return
			}
			p, err := profiles.UpdateProfile(r.Context(), id.ID, rq)
			switch {
			case errors.Is(err, employer.ErrNothingToUpdate):
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": err.Error()})
				return
			case errors.Is(err, employer.ErrNotFound):
				svr.JSON(w, http.StatusNotFound, map[string]interface{}{"message": "Profile update failed or user not found."})
				return
			case err != nil:
				svr.Log(err, fmt.Sprintf("unable to update profile of employer %s", id.ID))
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Server Error"})
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"message": "Profile updated successfully", "profile": p})
		default:
			svr.JSON(w, http.StatusMethodNotAllowed, nil)
		}
	})
}

// EmployerCompanyHandler reads the employer's company, creating and linking it on first
// read, and applies edits to an already linked company
func EmployerCompanyHandler(svr server.Server, linker companyLinker, companies companyUpdater) http.HandlerFunc {
	return employerRoute(svr, func(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
		switch r.Method {
		case http.MethodGet:
			c, err := linker.EnsureLinked(r.Context(), id.ID)
			switch {
			case errors.Is(err, company.ErrEmployerNotFound):
				svr.JSON(w, http.StatusNotFound, map[string]interface{}{"message": "Employer record not found."})
				return
			case errors.Is(err, company.ErrNoCompany):
				svr.JSON(w, http.StatusNotFound, map[string]interface{}{"message": "No company linked and no name found to create one."})
				return
			case err != nil:
				svr.Log(err, fmt.Sprintf("unable to resolve company of employer %s", id.ID))
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Server error"})
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"company": c})
		case http.MethodPut:
			rq := company.CompanyRqUpdate{}
			if err := decodeJSON(r, &rq); err != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid request body"})
				return
			}
			companyID, err := linker.LinkedCompanyID(r.Context(), id.ID)
			switch {
			case errors.Is(err, company.ErrNoCompany):
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Cannot update: No company linked to this account."})
				return
			case errors.Is(err, company.ErrEmployerNotFound):
				svr.JSON(w, http.StatusNotFound, map[string]interface{}{"message": "Employer record not found."})
				return
			case err != nil:
				svr.Log(err, fmt.Sprintf("unable to read company link of employer %s", id.ID))
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Server error"})
				return
			}
			c, err := companies.Update(r.Context(), companyID, rq)
			if errors.Is(err, company.ErrEmptyCompanyName) {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Company name cannot be empty."})
				return
			}
			if err != nil {
				svr.Log(err, fmt.Sprintf("unable to update company %s", companyID))
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Server error"})
				return
			}
			svr.CacheDelete(server.CacheKeyOpenJobs)
			svr.JSON(w, http.StatusOK, map[string]interface{}{"message": "Company profile updated successfully.", "company": c})
		default:
			svr.JSON(w, http.StatusMethodNotAllowed, nil)
		}
	})
}

// TriggerCompanyNameSync rewrites employers' cached company names from their linked company
func TriggerCompanyNameSync(svr server.Server, linker companyLinker, marker syncMarker) http.HandlerFunc {
	return middleware.MachineAuthenticatedMiddleware(
		svr.GetConfig().MachineToken,
		func(w http.ResponseWriter, r *http.Request) {
			changed, err := linker.SyncEmployerNames(r.Context())
			if err != nil {
				svr.Log(err, "unable to sync employer company names")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{
					"message":       "Sync failed",
					"updated_count": len(changed),
				})
				return
			}
			if err := marker.SetTime(r.Context(), meta.KeyLastCompanySync, time.Now()); err != nil {
				svr.Log(err, "unable to record company sync run")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{
					"message":       "Sync failed",
					"updated_count": len(changed),
				})
				return
			}
			if len(changed) == 0 {
				svr.JSON(w, http.StatusOK, map[string]interface{}{"message": "Sync complete. No discrepancies found.", "updated_count": 0})
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{
				"success":       true,
				"message":       fmt.Sprintf("Sync successful. Updated %d employer records to match their company profiles.", len(changed)),
				"updated_count": len(changed),
				"details":       changed,
			})
		},
	)
}
