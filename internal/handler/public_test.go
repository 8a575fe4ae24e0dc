package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jobbase/job-board/internal/application"
	"github.com/jobbase/job-board/internal/cms"
	"github.com/jobbase/job-board/internal/email"
	"github.com/jobbase/job-board/internal/job"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOpenJobs struct {
	listings []job.Listing
	calls    int
}

func (f *fakeOpenJobs) ListOpen(ctx context.Context, limit int) ([]job.Listing, error) {
	f.calls++
	return f.listings, nil
}

func TestSeeJobsIsCached(t *testing.T) {
	svr := newTestServer(t)
	jobs := &fakeOpenJobs{listings: []job.Listing{{ID: jobID, Title: "Go dev", CompanyName: "Acme"}}}
	h := SeeJobsHandler(svr, jobs)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/api/user/see-jobs", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := jsonBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Len(t, body["jobs"], 1)
	}
	assert.Equal(t, 1, jobs.calls)
}

type fakeDetails map[string]job.Details

func (f fakeDetails) GetPublic(ctx context.Context, id string) (job.Details, error) {
	d, ok := f[id]
	if !ok {
		return job.Details{}, sql.ErrNoRows
	}
	return d, nil
}

func TestJobDetails(t *testing.T) {
	svr := newTestServer(t)
	name := "Acme"
	h := JobDetailsHandler(svr, fakeDetails{jobID: {Job: job.Job{ID: jobID, Title: "Go dev"}, StatusLabel: job.StatusLabelActive, CompanyName: &name}})

	rec := post(h, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Job ID is required", jsonBody(t, rec)["error"])

	rec = post(h, `{"job_id":"`+strangerID+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = post(h, `{"job_id":"`+jobID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	j := jsonBody(t, rec)["job"].(map[string]interface{})
	assert.Equal(t, "Active", j["status_label"])
	assert.Equal(t, "Acme", j["company_name"])
}

type fakeJobLookup map[string]job.Job

func (f fakeJobLookup) GetByID(ctx context.Context, id string) (job.Job, error) {
	j, ok := f[id]
	if !ok {
		return job.Job{}, sql.ErrNoRows
	}
	return j, nil
}

type fakeApplications struct {
	seen map[string]bool
}

func (f *fakeApplications) CreateOrConflict(ctx context.Context, rq application.ApplicationRq) (application.Application, error) {
	key := rq.JobID + "|" + rq.CandidateEmail
	if f.seen[key] {
		return application.Application{}, application.ErrAlreadyApplied
	}
	f.seen[key] = true
	return application.Application{ID: appID, JobID: rq.JobID, CandidateName: rq.CandidateName, CandidateEmail: rq.CandidateEmail, Status: application.StatusPending, AppliedAt: time.Now()}, nil
}

type sentMail struct {
	to      email.Address
	subject string
	html    string
}

type recordingMailer struct {
	sent []sentMail
}

func (m *recordingMailer) SendHTMLEmail(to email.Address, subject, html string) error {
	m.sent = append(m.sent, sentMail{to, subject, html})
	return nil
}

func TestSubmitApplication(t *testing.T) {
	svr := newTestServer(t)
	closedID := "f0e1d2c3-b4a5-4968-8776-655443322110"
	jobs := fakeJobLookup{
		jobID:    {ID: jobID, EmployerID: ownerID, Title: "Go dev", Status: true, LastDate: time.Now().AddDate(0, 0, 7)},
		closedID: {ID: closedID, EmployerID: ownerID, Title: "Old role", Status: true, LastDate: time.Now().AddDate(0, 0, -2)},
	}
	employers := fakeEmployerReader{ownerID: {ID: ownerID, Name: "Grace", Email: "hr@acme.test"}}
	apps := &fakeApplications{seen: map[string]bool{}}
	mailer := &recordingMailer{}
	h := SubmitApplicationHandler(svr, jobs, employers, apps, mailer)

	rec := post(h, `{"job_id":"`+jobID+`","candidate_name":"Ada"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "All fields are required.", jsonBody(t, rec)["error"])

	rec = post(h, `{"job_id":"`+jobID+`","candidate_name":"Ada","candidate_email":"ada@example.test","resume_url":"javascript:alert(1)"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := `{"job_id":"` + jobID + `","candidate_name":"Ada","candidate_email":"Ada@Example.test","resume_url":"https://cv.test/ada.pdf"}`
	rec = post(h, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Application submitted successfully!", jsonBody(t, rec)["message"])
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "ada@example.test", mailer.sent[0].to.Email)
	assert.Equal(t, "hr@acme.test", mailer.sent[1].to.Email)
	assert.Contains(t, mailer.sent[1].html, "https://jobs.test/dashboard/employer/applicants?job_id="+jobID)

	// same candidate with different casing
	rec = post(h, strings.Replace(body, "Ada@Example.test", "ada@example.test ", 1))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "You have already applied for this job.", jsonBody(t, rec)["error"])
	assert.Len(t, mailer.sent, 2)

	rec = post(h, strings.Replace(body, jobID, closedID, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, application.ErrJobClosed.Error(), jsonBody(t, rec)["error"])

	rec = post(h, strings.Replace(body, jobID, strangerID, 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRSSAndSitemap(t *testing.T) {
	svr := newTestServer(t)
	jobs := &fakeOpenJobs{listings: []job.Listing{{ID: jobID, Title: "Go dev", CompanyName: "Acme", Location: "Remote", CreatedAt: time.Now()}}}

	rec := httptest.NewRecorder()
	ServeRSSFeed(svr, jobs)(rec, httptest.NewRequest(http.MethodGet, "/jobs.rss", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<rss")
	assert.Contains(t, rec.Body.String(), "Go dev with Acme - Remote")
	assert.Contains(t, rec.Body.String(), "https://jobs.test/jobs/"+jobID)

	rec = httptest.NewRecorder()
	SitemapHandler(svr, jobs)(rec, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<urlset")
	assert.Contains(t, rec.Body.String(), "https://jobs.test/jobs/"+jobID)
	assert.Contains(t, rec.Body.String(), "https://jobs.test/blog/internship")
}

type fakePosts struct{}

func (fakePosts) CategoryPosts(ctx context.Context, slug string) ([]cms.PostSummary, error) {
	if slug != "remote" {
		return nil, cms.ErrUnknownCategory
	}
	return []cms.PostSummary{{ID: 1, Slug: "hello", CategorySlug: slug}}, nil
}

func (fakePosts) Post(ctx context.Context, slug string) (cms.Post, error) {
	if slug != "hello" {
		return cms.Post{}, cms.ErrPostNotFound
	}
	return cms.Post{ID: 1, Slug: slug, Author: cms.Author{Name: "Ada"}}, nil
}

func TestCMSHandlers(t *testing.T) {
	svr := newTestServer(t)
	get := func(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	rec := get(CategoryPostsHandler(svr, fakePosts{}), "/api/cms/category-post?slug=sports")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or missing category slug", jsonBody(t, rec)["message"])

	rec = get(CategoryPostsHandler(svr, fakePosts{}), "/api/cms/category-post?slug=remote")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, jsonBody(t, rec)["posts"], 1)

	rec = get(SinglePostHandler(svr, fakePosts{}), "/api/cms/single-post")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing slug parameter", jsonBody(t, rec)["message"])

	rec = get(SinglePostHandler(svr, fakePosts{}), "/api/cms/single-post?slug=missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Post not found", jsonBody(t, rec)["message"])

	rec = get(SinglePostHandler(svr, fakePosts{}), "/api/cms/single-post?slug=hello")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, jsonBody(t, rec)["success"])
}
