package ai

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const defaultRemoveBGBaseURL = "https://api.remove.bg"

// BackgroundResult holds the processed image. Removed is false when the
// original bytes were passed through unchanged.
type BackgroundResult struct {
	Data        []byte
	ContentType string
	Removed     bool
}

func (r *BackgroundResult) DataURL() string {
	return DataURL(r.ContentType, r.Data)
}

// BackgroundRemover strips the background from an image.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, image []byte) (*BackgroundResult, error)
}

// RemoveBGClient calls the remove.bg API. Without a key, or on any vendor
// failure, it returns the original image unchanged.
type RemoveBGClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewRemoveBGClient(apiKey, baseURL string, httpClient *http.Client, logger *zap.Logger) *RemoveBGClient {
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoveBGClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    trimBaseURL(baseURL, defaultRemoveBGBaseURL),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *RemoveBGClient) HasCredentials() bool {
	return c != nil && c.apiKey != ""
}

func (c *RemoveBGClient) RemoveBackground(ctx context.Context, image []byte) (*BackgroundResult, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	original := &BackgroundResult{Data: image, ContentType: DetectContentType(image)}

	if !c.HasCredentials() {
		c.logger.Debug("remove.bg key not configured, returning original image")
		return original, nil
	}

	data, err := c.call(ctx, image)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("background removal failed, returning original image", zap.Error(err))
		return original, nil
	}
	return &BackgroundResult{Data: data, ContentType: DetectContentType(data), Removed: true}, nil
}

func (c *RemoveBGClient) call(ctx context.Context, image []byte) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image_file", "image.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.WriteField("size", "auto"); err != nil {
		return nil, fmt.Errorf("write size field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1.0/removebg", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remove.bg request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError(resp)
	}
	data, err := readArtifact(resp.Body, maxImageBytes)
	if err != nil {
		return nil, fmt.Errorf("read remove.bg image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("remove.bg returned an empty body")
	}
	return data, nil
}

var _ BackgroundRemover = (*RemoveBGClient)(nil)
