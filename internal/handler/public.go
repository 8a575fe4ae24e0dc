package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jobbase/job-board/internal/application"
	"github.com/jobbase/job-board/internal/email"
	"github.com/jobbase/job-board/internal/job"
	"github.com/jobbase/job-board/internal/server"
	"github.com/jobbase/job-board/internal/template"

	"github.com/gorilla/feeds"
	"github.com/snabb/sitemap"
)

type openJobs interface {
	ListOpen(ctx context.Context, limit int) ([]job.Listing, error)
}

type jobDetails interface {
	GetPublic(ctx context.Context, jobID string) (job.Details, error)
}

type jobLookup interface {
	GetByID(ctx context.Context, jobID string) (job.Job, error)
}

type applicationCreator interface {
	CreateOrConflict(ctx context.Context, rq application.ApplicationRq) (application.Application, error)
}

type mailer interface {
	SendHTMLEmail(to email.Address, subject, html string) error
}

func SeeJobsHandler(svr server.Server, jobRepo openJobs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cached, ok := svr.CacheGet(server.CacheKeyOpenJobs); ok {
			svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "jobs": json.RawMessage(cached)})
			return
		}
		jobs, err := jobRepo.ListOpen(r.Context(), svr.GetConfig().JobsPerFeed)
		if err != nil {
			svr.Log(err, "unable to list open jobs")
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "Internal Server Error"})
			return
		}
		if b, err := json.Marshal(jobs); err == nil {
			if err := svr.CacheSet(server.CacheKeyOpenJobs, b); err != nil {
				svr.Log(err, "unable to cache open jobs")
			}
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "jobs": jobs})
	}
}

func JobDetailsHandler(svr server.Server, jobRepo jobDetails) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rq := struct {
			JobID string `json:"job_id"`
		}{}
		if err := decodeJSON(r, &rq); err != nil || strings.TrimSpace(rq.JobID) == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "Job ID is required"})
			return
		}
		details, err := jobRepo.GetPublic(r.Context(), strings.TrimSpace(rq.JobID))
		if errors.Is(err, sql.ErrNoRows) {
			svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Job not found"})
			return
		}
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to read job %s", rq.JobID))
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "Internal Server Error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "job": details})
	}
}

// SubmitApplicationHandler records a candidate's application and notifies both sides.
// The emails are best effort, a failed send never fails the application.
func SubmitApplicationHandler(svr server.Server, jobRepo jobLookup, employers employerReader, appRepo applicationCreator, m mailer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rq := application.ApplicationRq{}
		if err := decodeJSON(r, &rq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "Invalid request body"})
			return
		}
		rq.JobID = strings.TrimSpace(rq.JobID)
		rq.CandidateName = strings.TrimSpace(rq.CandidateName)
		rq.CandidateEmail = application.NormaliseEmail(rq.CandidateEmail)
		rq.ResumeURL = strings.TrimSpace(rq.ResumeURL)
		if rq.JobID == "" || rq.CandidateName == "" || rq.CandidateEmail == "" || rq.ResumeURL == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "All fields are required."})
			return
		}
		if !svr.IsEmail(rq.CandidateEmail) {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "Invalid email address"})
			return
		}
		if u, err := url.Parse(rq.ResumeURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "resume_url must be an http or https link"})
			return
		}
		j, err := jobRepo.GetByID(r.Context(), rq.JobID)
		if errors.Is(err, sql.ErrNoRows) {
			svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Job not found"})
			return
		}
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to read job %s", rq.JobID))
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "Internal Server Error"})
			return
		}
		if !j.IsActive(time.Now()) {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": application.ErrJobClosed.Error()})
			return
		}
		app, err := appRepo.CreateOrConflict(r.Context(), rq)
		if errors.Is(err, application.ErrAlreadyApplied) {
			svr.JSON(w, http.StatusConflict, map[string]interface{}{"success": false, "error": err.Error()})
			return
		}
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to save application for job %s", rq.JobID))
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "Internal Server Error"})
			return
		}
		notifyApplication(r.Context(), svr, employers, m, j, app)
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Application submitted successfully!", "data": app})
	}
}

func notifyApplication(ctx context.Context, svr server.Server, employers employerReader, m mailer, j job.Job, app application.Application) {
	cfg := svr.GetConfig()
	tmpl := svr.GetTemplate()
	if tmpl == nil || m == nil {
		return
	}
	body, err := tmpl.RenderEmail(template.EmailApplicationReceived, map[string]interface{}{
		"CandidateName": app.CandidateName,
		"JobTitle":      j.Title,
		"SiteName":      cfg.SiteName,
		"AppliedAt":     app.AppliedAt,
	})
	if err != nil {
		svr.Log(err, "unable to render application received email")
	} else if err := m.SendHTMLEmail(email.Address{Name: app.CandidateName, Email: app.CandidateEmail}, fmt.Sprintf("Your application for %s", j.Title), body); err != nil {
		svr.Log(err, fmt.Sprintf("unable to send application confirmation to %s", app.CandidateEmail))
	}

	e, err := employers.GetByID(ctx, j.EmployerID)
	if err != nil {
		svr.Log(err, fmt.Sprintf("unable to read employer %s for applicant notification", j.EmployerID))
		return
	}
	body, err = tmpl.RenderEmail(template.EmailNewApplicant, map[string]interface{}{
		"CandidateName":  app.CandidateName,
		"CandidateEmail": app.CandidateEmail,
		"JobTitle":       j.Title,
		"ApplicantsURL":  siteURLOf(svr).of("/dashboard/employer/applicants?job_id=" + url.QueryEscape(j.ID)),
	})
	if err != nil {
		svr.Log(err, "unable to render new applicant email")
		return
	}
	if err := m.SendHTMLEmail(email.Address{Name: e.Name, Email: e.Email}, fmt.Sprintf("New applicant for %s", j.Title), body); err != nil {
		svr.Log(err, fmt.Sprintf("unable to notify employer %s of new applicant", e.ID))
	}
}

func ServeRSSFeed(svr server.Server, jobRepo openJobs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := svr.GetConfig()
		listings, err := jobRepo.ListOpen(r.Context(), cfg.JobsPerFeed)
		if err != nil {
			svr.Log(err, "unable to retrieve jobs for RSS Feed")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		site := siteURLOf(svr)
		feed := &feeds.Feed{
			Title:       cfg.SiteName + " Jobs",
			Link:        &feeds.Link{Href: site.of("/")},
			Description: "Open positions on " + cfg.SiteName,
			Author:      &feeds.Author{Name: cfg.SiteName, Email: cfg.NoReplyEmail},
			Created:     time.Now(),
		}
		for _, l := range listings {
			feed.Items = append(feed.Items, &feeds.Item{
				Id:          l.ID,
				Title:       fmt.Sprintf("%s with %s - %s", l.Title, l.CompanyName, l.Location),
				Link:        &feeds.Link{Href: site.of("/jobs/" + l.ID)},
				Description: l.Description,
				Author:      &feeds.Author{Name: l.CompanyName},
				Created:     l.CreatedAt,
			})
		}
		rssFeed, err := feed.ToRss()
		if err != nil {
			svr.Log(err, "unable to convert rss feed to xml")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		svr.XML(w, http.StatusOK, []byte(rssFeed))
	}
}

var staticPages = []string{"/", "/jobs", "/employer/signup", "/employer/login"}

// SitemapHandler lists the static pages, every blog category and each open job
func SitemapHandler(svr server.Server, jobRepo openJobs) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := svr.GetConfig()
		listings, err := jobRepo.ListOpen(r.Context(), cfg.JobsPerFeed)
		if err != nil {
			svr.Log(err, "unable to retrieve jobs for sitemap")
			svr.TEXT(w, http.StatusInternalServerError, "unable to fetch sitemap")
			return
		}
		site := siteURLOf(svr)
		now := time.Now().UTC()
		sm := sitemap.New()
		for _, p := range staticPages {
			sm.Add(&sitemap.URL{Loc: site.of(p), LastMod: &now, ChangeFreq: sitemap.Daily})
		}
		categories := make([]string, 0, len(cfg.CMSCategories))
		for category := range cfg.CMSCategories {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			sm.Add(&sitemap.URL{Loc: site.of("/blog/" + category), LastMod: &now, ChangeFreq: sitemap.Daily})
		}
		for _, l := range listings {
			created := l.CreatedAt
			sm.Add(&sitemap.URL{Loc: site.of("/jobs/" + l.ID), LastMod: &created, ChangeFreq: sitemap.Weekly})
		}
		buf := new(bytes.Buffer)
		if _, err := sm.WriteTo(buf); err != nil {
			svr.Log(err, "sitemap.WriteTo")
			svr.TEXT(w, http.StatusInternalServerError, "unable to save sitemap file")
			return
		}
		svr.XML(w, http.StatusOK, buf.Bytes())
	}
}
