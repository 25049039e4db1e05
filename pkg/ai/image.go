package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	DefaultImageStyle  = "digital-art"
	DefaultImageWidth  = 1024
	DefaultImageHeight = 1024

	defaultStabilityBaseURL    = "https://api.stability.ai"
	defaultPollinationsBaseURL = "https://image.pollinations.ai"
	stabilityEngine            = "stable-diffusion-xl-1024-v1-0"
	maxImageBytes              = 20 << 20
)

type ImageRequest struct {
	Prompt string
	Style  string
	Width  int
	Height int
}

func (r ImageRequest) withDefaults() ImageRequest {
	if strings.TrimSpace(r.Style) == "" {
		r.Style = DefaultImageStyle
	}
	if r.Width <= 0 {
		r.Width = DefaultImageWidth
	}
	if r.Height <= 0 {
		r.Height = DefaultImageHeight
	}
	return r
}

// ImageArtifact is a generated image held in memory.
type ImageArtifact struct {
	Data        []byte
	ContentType string
	Vendor      string
}

func (a *ImageArtifact) DataURL() string {
	return DataURL(a.ContentType, a.Data)
}

// ImageGenerator turns a text prompt into an image.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageArtifact, error)
}

type credentialed interface {
	HasCredentials() bool
}

func hasCredentials(v any) bool {
	c, ok := v.(credentialed)
	return !ok || c.HasCredentials()
}

// StabilityClient calls the Stability AI text-to-image endpoint.
type StabilityClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewStabilityClient(apiKey, baseURL string, httpClient *http.Client) *StabilityClient {
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &StabilityClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    trimBaseURL(baseURL, defaultStabilityBaseURL),
		httpClient: httpClient,
	}
}

func (c *StabilityClient) HasCredentials() bool {
	return c != nil && c.apiKey != ""
}

type stabilityTextPrompt struct {
	Text string `json:"text"`
}

type stabilityRequest struct {
	Width       int                   `json:"width"`
	Height      int                   `json:"height"`
	TextPrompts []stabilityTextPrompt `json:"text_prompts"`
	CfgScale    int                   `json:"cfg_scale"`
	Samples     int                   `json:"samples"`
	Steps       int                   `json:"steps"`
	StylePreset string                `json:"style_preset,omitempty"`
}

type stabilityResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

func (c *StabilityClient) GenerateImage(ctx context.Context, req ImageRequest) (*ImageArtifact, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	req = req.withDefaults()

	endpoint := fmt.Sprintf("%s/v1/generation/%s/text-to-image", c.baseURL, stabilityEngine)
	httpReq, err := newJSONRequest(ctx, http.MethodPost, endpoint, stabilityRequest{
		Width:       req.Width,
		Height:      req.Height,
		TextPrompts: []stabilityTextPrompt{{Text: req.Prompt}},
		CfgScale:    7,
		Samples:     1,
		Steps:       30,
		StylePreset: req.Style,
	})
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stability request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError(resp)
	}

	var payload stabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode stability response: %w", err)
	}
	if len(payload.Artifacts) == 0 || payload.Artifacts[0].Base64 == "" {
		return nil, errors.New("stability returned no artifacts")
	}

	raw, err := base64.StdEncoding.DecodeString(payload.Artifacts[0].Base64)
	if err != nil {
		return nil, fmt.Errorf("decode stability artifact: %w", err)
	}
	png, err := encodePNG(raw)
	if err != nil {
		return nil, err
	}
	return &ImageArtifact{Data: png, ContentType: "image/png", Vendor: "stability"}, nil
}

// encodePNG normalizes any decodable image to PNG.
func encodePNG(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// PollinationsClient is the keyless public image endpoint used as fallback.
type PollinationsClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPollinationsClient(baseURL string, httpClient *http.Client) *PollinationsClient {
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &PollinationsClient{
		baseURL:    trimBaseURL(baseURL, defaultPollinationsBaseURL),
		httpClient: httpClient,
	}
}

// GenerateImage only forwards the prompt and dimensions; style is ignored.
func (c *PollinationsClient) GenerateImage(ctx context.Context, req ImageRequest) (*ImageArtifact, error) {
	req = req.withDefaults()

	query := url.Values{}
	query.Set("width", strconv.Itoa(req.Width))
	query.Set("height", strconv.Itoa(req.Height))
	endpoint := fmt.Sprintf("%s/prompt/%s?%s", c.baseURL, url.PathEscape(req.Prompt), query.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("pollinations request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readStatusError(resp)
	}
	data, err := readArtifact(resp.Body, maxImageBytes)
	if err != nil {
		return nil, fmt.Errorf("read pollinations image: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("pollinations returned an empty body")
	}
	contentType := DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("pollinations returned %s", contentType)
	}
	return &ImageArtifact{Data: data, ContentType: contentType, Vendor: "pollinations"}, nil
}

// ImageChain tries the primary generator and falls back exactly once.
// A primary without credentials is skipped.
type ImageChain struct {
	primary  ImageGenerator
	fallback ImageGenerator
	logger   *zap.Logger
}

func NewImageChain(primary, fallback ImageGenerator, logger *zap.Logger) *ImageChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageChain{primary: primary, fallback: fallback, logger: logger}
}

func (c *ImageChain) GenerateImage(ctx context.Context, req ImageRequest) (*ImageArtifact, error) {
	if c.primary != nil && hasCredentials(c.primary) {
		artifact, err := c.primary.GenerateImage(ctx, req)
		if err == nil {
			return artifact, nil
		}
		c.logger.Warn("primary image vendor failed, using fallback", zap.Error(err))
	}

	if c.fallback == nil {
		return nil, &VendorError{Vendor: "image", Reason: "Image generation service unavailable", Err: ErrUnavailable}
	}
	artifact, err := c.fallback.GenerateImage(ctx, req)
	if err != nil {
		c.logger.Error("fallback image vendor failed", zap.Error(err))
		return nil, &VendorError{
			Vendor: "image",
			Reason: "Image generation service unavailable",
			Err:    errors.Join(ErrUnavailable, err),
		}
	}
	return artifact, nil
}

var (
	_ ImageGenerator = (*StabilityClient)(nil)
	_ ImageGenerator = (*PollinationsClient)(nil)
	_ ImageGenerator = (*ImageChain)(nil)
)
