// Package http is a small client for the pipeline API.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"talent-pipeline/internal/storage"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Kind, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Upload holds one résumé and the optional form fields sent with it.
type Upload struct {
	Filename string
	Content  io.Reader
	FullName string
	Email    string
	JobID    string
}

// UploadResume posts a résumé to /api/candidates and returns the created candidate.
func (c *Client) UploadResume(ctx context.Context, u Upload) (*storage.Candidate, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, value := range map[string]string{
		"full_name": u.FullName,
		"email":     u.Email,
		"job_id":    u.JobID,
	} {
		if value == "" {
			continue
		}
		if err := mw.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	fw, err := mw.CreateFormFile("file", u.Filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, u.Content); err != nil {
		return nil, fmt.Errorf("read %s: %w", u.Filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	resp, err := c.Post(ctx, "/api/candidates", mw.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var cand storage.Candidate
	if err := decodeResponse(resp, http.StatusCreated, &cand); err != nil {
		return nil, err
	}
	return &cand, nil
}

// ListJobs fetches the job registry.
func (c *Client) ListJobs(ctx context.Context) ([]*storage.Job, error) {
	resp, err := c.Get(ctx, "/api/jobs")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var jobs []*storage.Job
	if err := decodeResponse(resp, http.StatusOK, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

func (c *Client) Post(ctx context.Context, path string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.httpClient.Do(req)
}

func decodeResponse(resp *http.Response, want int, v interface{}) error {
	if resp.StatusCode != want {
		var body struct {
			Error string `json:"error"`
			Kind  string `json:"kind"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
			body.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: resp.StatusCode, Kind: body.Kind, Message: body.Error}
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// ValidateBaseURL checks that raw is an absolute http(s) URL.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("server must be an http(s) URL, got %q", raw)
	}
	return nil
}
