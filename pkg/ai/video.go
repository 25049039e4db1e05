package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultVoice        = "en_female_1"
	DefaultAvatarURL    = "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=400&h=400&fit=crop&crop=face"
	DefaultPollInterval = 2 * time.Second
	DefaultPollAttempts = 30

	defaultDIDBaseURL = "https://api.d-id.com"
)

// JobStatus is the normalized state of an asynchronous vendor job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobDone    JobStatus = "done"
	JobError   JobStatus = "error"
)

// Job is a transient view of a vendor-side generation job.
type Job struct {
	ID        string
	Status    JobStatus
	ResultURL string
}

type VideoRequest struct {
	Text     string
	ImageURL string
	Voice    string
}

type VideoArtifact struct {
	URL    string
	JobID  string
	Vendor string
}

// VideoGenerator turns a script into a talking-head video URL.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, req VideoRequest) (*VideoArtifact, error)
}

// DIDClient wraps the D-ID talks API.
type DIDClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewDIDClient(apiKey, baseURL string, httpClient *http.Client) *DIDClient {
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &DIDClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    trimBaseURL(baseURL, defaultDIDBaseURL),
		httpClient: httpClient,
	}
}

func (c *DIDClient) HasCredentials() bool {
	return c != nil && c.apiKey != ""
}

type didProvider struct {
	Type    string `json:"type"`
	VoiceID string `json:"voice_id"`
}

type didScript struct {
	Type     string      `json:"type"`
	Input    string      `json:"input"`
	Provider didProvider `json:"provider"`
}

type didConfig struct {
	Fluent   string `json:"fluent"`
	PadAudio string `json:"pad_audio"`
}

type didTalkRequest struct {
	Script    didScript `json:"script"`
	SourceURL string    `json:"source_url"`
	Config    didConfig `json:"config"`
}

type didTalkResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ResultURL string `json:"result_url"`
}

// CreateTalk submits a new talk job and returns its id.
func (c *DIDClient) CreateTalk(ctx context.Context, req VideoRequest) (string, error) {
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	if req.ImageURL == "" {
		req.ImageURL = DefaultAvatarURL
	}
	if req.Voice == "" {
		req.Voice = DefaultVoice
	}

	httpReq, err := newJSONRequest(ctx, http.MethodPost, c.baseURL+"/talks", didTalkRequest{
		Script: didScript{
			Type:     "text",
			Input:    req.Text,
			Provider: didProvider{Type: "microsoft", VoiceID: req.Voice},
		},
		SourceURL: req.ImageURL,
		Config:    didConfig{Fluent: "true", PadAudio: "0.0"},
	})
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("d-id create talk: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", readStatusError(resp)
	}
	var payload didTalkResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode d-id talk: %w", err)
	}
	if payload.ID == "" {
		return "", errors.New("d-id returned a talk without id")
	}
	return payload.ID, nil
}

// GetTalk fetches the current state of a talk job.
func (c *DIDClient) GetTalk(ctx context.Context, id string) (*Job, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	httpReq, err := newJSONRequest(ctx, http.MethodGet, c.baseURL+"/talks/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("d-id get talk: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError(resp)
	}
	var payload didTalkResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode d-id talk: %w", err)
	}

	job := &Job{ID: id, Status: JobPending, ResultURL: payload.ResultURL}
	switch payload.Status {
	case "done":
		job.Status = JobDone
	case "error", "rejected":
		job.Status = JobError
	}
	return job, nil
}

// JobFetcher returns the latest state of a job.
type JobFetcher func(ctx context.Context, id string) (*Job, error)

// Poller waits for an asynchronous job to reach a terminal state. It fetches
// once immediately and then once per Interval, at most MaxAttempts times.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
	Logger      *zap.Logger
}

func (p Poller) Await(ctx context.Context, id string, fetch JobFetcher) (*Job, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultPollAttempts
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for attempt := 1; attempt <= attempts; attempt++ {
		job, err := fetch(ctx, id)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Debug("job poll failed", zap.String("job_id", id), zap.Int("attempt", attempt), zap.Error(err))
		case job.Status == JobDone:
			if job.ResultURL == "" {
				return nil, fmt.Errorf("%w: job %s finished without result", ErrJobFailed, id)
			}
			return job, nil
		case job.Status == JobError:
			return nil, fmt.Errorf("%w: job %s", ErrJobFailed, id)
		}

		if attempt == attempts {
			break
		}
		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("%w: job %s after %d attempts", ErrPollTimeout, id, attempts)
}

// DIDVideoGenerator creates a talk and polls it to completion.
type DIDVideoGenerator struct {
	client *DIDClient
	poller Poller
	logger *zap.Logger
}

func NewDIDVideoGenerator(client *DIDClient, poller Poller, logger *zap.Logger) *DIDVideoGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if poller.Logger == nil {
		poller.Logger = logger
	}
	return &DIDVideoGenerator{client: client, poller: poller, logger: logger}
}

func (g *DIDVideoGenerator) HasCredentials() bool {
	return g.client.HasCredentials()
}

func (g *DIDVideoGenerator) GenerateVideo(ctx context.Context, req VideoRequest) (*VideoArtifact, error) {
	if !g.client.HasCredentials() {
		return nil, &VendorError{Vendor: "d-id", Reason: "D-ID API key not configured", Err: ErrMissingAPIKey}
	}

	id, err := g.client.CreateTalk(ctx, req)
	if err != nil {
		g.logger.Error("d-id talk creation failed", zap.Error(err))
		return nil, &VendorError{Vendor: "d-id", Reason: "Video generation service unavailable", Err: errors.Join(ErrUnavailable, err)}
	}

	job, err := g.poller.Await(ctx, id, g.client.GetTalk)
	if err != nil {
		g.logger.Error("d-id talk did not complete", zap.String("job_id", id), zap.Error(err))
		reason := "Video generation service unavailable"
		switch {
		case errors.Is(err, ErrJobFailed):
			reason = "Video generation failed"
		case errors.Is(err, ErrPollTimeout), errors.Is(err, context.DeadlineExceeded):
			reason = "Video generation timeout"
		}
		return nil, &VendorError{Vendor: "d-id", Reason: reason, Err: err}
	}
	return &VideoArtifact{URL: job.ResultURL, JobID: id, Vendor: "d-id"}, nil
}

var _ VideoGenerator = (*DIDVideoGenerator)(nil)
