package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jobbase/job-board/internal/application"
)

const applicantsPath = "/api/employer/jobs/applicants"

// StatusError is a non 2xx answer to a status update
type StatusError struct {
	Code    int
	Message string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("status update rejected with %d: %s", e.Code, e.Message)
}

// HTTPUpdater sends status changes to the job board api. The client is expected to
// carry the employer session cookie, usually through its cookie jar.
type HTTPUpdater struct {
	baseURL string
	client  *http.Client
}

func NewHTTPUpdater(baseURL string, client *http.Client) HTTPUpdater {
	if client == nil {
		client = http.DefaultClient
	}
	return HTTPUpdater{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (u HTTPUpdater) UpdateStatus(ctx context.Context, jobID, applicantID string, status application.Status) error {
	body, err := json.Marshal(application.StatusUpdateRq{
		ApplicantID: applicantID,
		JobID:       jobID,
		Status:      string(status),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.baseURL+applicantsPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := u.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	var msg struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	text := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &msg) == nil {
		if msg.Error != "" {
			text = msg.Error
		} else if msg.Message != "" {
			text = msg.Message
		}
	}
	if text == "" {
		text = http.StatusText(res.StatusCode)
	}
	return StatusError{Code: res.StatusCode, Message: text}
}
