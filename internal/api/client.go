package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"contentgen/internal/logging"
	"contentgen/internal/model"
)

const (
	userAgent        = "contentgen"
	maxResponseBytes = 16 << 20
	errorBodyLimit   = 4096
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the content-generation backend over its REST API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		http:    hc,
		log:     log,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

type uploadResponse struct {
	Filename string `json:"filename"`
}

type scriptsResponse struct {
	Scripts []model.Script `json:"scripts"`
}

type generateRequest struct {
	Filename    string `json:"filename"`
	ScriptTitle string `json:"script_title,omitempty"`
}

type generateResponse struct {
	JobID string `json:"job_id"`
}

type jobsResponse struct {
	Jobs []model.Job `json:"jobs"`
}

type jobResponse struct {
	Job model.Job `json:"job"`
}

type videosResponse struct {
	Videos []model.Video `json:"videos"`
}

type configResponse struct {
	Config model.BackendConfig `json:"config"`
}

// Upload validates path locally and posts it as multipart field "file".
// It returns the filename the backend stored.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	if _, err := ValidateUploadFile(path); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", &ValidationError{Field: "file", Message: err.Error()}
	}
	defer f.Close()
	return c.UploadReader(ctx, filepath.Base(path), f)
}

// UploadReader posts content already validated by the caller.
func (c *Client) UploadReader(ctx context.Context, name string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", &RequestFailure{Op: "upload", Err: err}
	}
	n, err := io.Copy(part, io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", &RequestFailure{Op: "upload", Err: fmt.Errorf("read %s: %w", name, err)}
	}
	if err := ValidateUpload(name, n); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", &RequestFailure{Op: "upload", Err: err}
	}

	var out uploadResponse
	if err := c.doJSON(ctx, "upload", http.MethodPost, "/api/scripts/upload", &body, mw.FormDataContentType(), &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Filename) == "" {
		return name, nil
	}
	return out.Filename, nil
}

func (c *Client) Scripts(ctx context.Context) ([]model.Script, error) {
	var out scriptsResponse
	if err := c.doJSON(ctx, "list scripts", http.MethodGet, "/api/scripts", nil, "", &out); err != nil {
		return nil, err
	}
	return out.Scripts, nil
}

func (c *Client) Script(ctx context.Context, filename string) (model.ScriptDetail, error) {
	var out model.ScriptDetail
	if err := c.doJSON(ctx, "get script", http.MethodGet, "/api/scripts/"+url.PathEscape(filename), nil, "", &out); err != nil {
		return model.ScriptDetail{}, err
	}
	if out.Filename == "" {
		out.Filename = filename
	}
	return out, nil
}

func (c *Client) DeleteScript(ctx context.Context, filename string) error {
	return c.doJSON(ctx, "delete script", http.MethodDelete, "/api/scripts/"+url.PathEscape(filename), nil, "", nil)
}

// Generate starts a job for filename, or for one section when title is set.
func (c *Client) Generate(ctx context.Context, filename, title string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", &ValidationError{Field: "filename", Message: "filename is required"}
	}
	payload, err := json.Marshal(generateRequest{Filename: filename, ScriptTitle: strings.TrimSpace(title)})
	if err != nil {
		return "", &RequestFailure{Op: "generate", Err: err}
	}
	var out generateResponse
	if err := c.doJSON(ctx, "generate", http.MethodPost, "/api/generate", bytes.NewReader(payload), "application/json", &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.JobID) == "" {
		return "", &RequestFailure{Op: "generate", Err: errors.New("response did not include job_id")}
	}
	return out.JobID, nil
}

func (c *Client) Jobs(ctx context.Context) ([]model.Job, error) {
	var out jobsResponse
	if err := c.doJSON(ctx, "list jobs", http.MethodGet, "/api/jobs", nil, "", &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

func (c *Client) Job(ctx context.Context, id string) (model.Job, error) {
	var out jobResponse
	if err := c.doJSON(ctx, "get job", http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, "", &out); err != nil {
		return model.Job{}, err
	}
	return out.Job, nil
}

func (c *Client) Videos(ctx context.Context) ([]model.Video, error) {
	var out videosResponse
	if err := c.doJSON(ctx, "list videos", http.MethodGet, "/api/videos", nil, "", &out); err != nil {
		return nil, err
	}
	return out.Videos, nil
}

func (c *Client) Config(ctx context.Context) (model.BackendConfig, error) {
	var out configResponse
	if err := c.doJSON(ctx, "get config", http.MethodGet, "/api/config", nil, "", &out); err != nil {
		return model.BackendConfig{}, err
	}
	return out.Config, nil
}

// Health calls /health, which has no success envelope.
func (c *Client) Health(ctx context.Context) (model.Health, error) {
	resp, err := c.do(ctx, "health", http.MethodGet, "/health", nil, "")
	if err != nil {
		return model.Health{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Health{}, backendErrorFromResponse("health", resp)
	}
	var out model.Health
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return model.Health{}, &RequestFailure{Op: "health", Err: fmt.Errorf("decode response: %w", err)}
	}
	return out, nil
}

// DownloadVideo streams the rendered video into w.
func (c *Client) DownloadVideo(ctx context.Context, filename string, w io.Writer) (int64, error) {
	op := "download video"
	resp, err := c.do(ctx, op, http.MethodGet, "/api/videos/"+url.PathEscape(filename), nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, backendErrorFromResponse(op, resp)
	}
	if isJSON(resp.Header.Get("Content-Type")) {
		// A JSON body on a video route is an error envelope.
		return 0, backendErrorFromResponse(op, resp)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &RequestFailure{Op: op, Err: err}
	}
	return n, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &RequestFailure{Op: op, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("api request failed", "op", op, "method", method, "path", path, "request_id", requestID, "duration", time.Since(start), "error", err)
		return nil, &RequestFailure{Op: op, Err: err}
	}
	c.log.Debug("api request", "op", op, "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID, "duration", time.Since(start))
	return resp, nil
}

// doJSON performs a request against an endpoint using the {success, error}
// envelope and decodes the body into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	resp, err := c.do(ctx, op, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return backendErrorFromResponse(op, resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &RequestFailure{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &RequestFailure{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if env.Success != nil && !*env.Success {
		return &BackendError{Op: op, Status: resp.StatusCode, Message: env.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RequestFailure{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func backendErrorFromResponse(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	msg := strings.TrimSpace(string(raw))
	var env envelope
	if json.Unmarshal(raw, &env) == nil && strings.TrimSpace(env.Error) != "" {
		msg = strings.TrimSpace(env.Error)
	}
	return &BackendError{Op: op, Status: resp.StatusCode, Message: msg}
}

func isJSON(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct == "application/json"
}
