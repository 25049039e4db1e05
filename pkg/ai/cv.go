package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultCVTemplate = "modern"
	DefaultCVSummary  = "Experienced professional seeking new opportunities."

	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultOpenAIModel   = "gpt-3.5-turbo"
	cvSystemPrompt       = "You are a professional career advisor and resume writer. Create compelling, professional CV content based on the user's information."
)

// ProfileText accepts either a plain string or a JSON array of strings.
type ProfileText struct {
	Text  string
	Items []string
}

func (p *ProfileText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ProfileText{}
		return nil
	}
	if data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*p = ProfileText{Items: items}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*p = ProfileText{Text: text}
	return nil
}

func (p ProfileText) MarshalJSON() ([]byte, error) {
	if p.Items != nil {
		return json.Marshal(p.Items)
	}
	return json.Marshal(p.Text)
}

func (p ProfileText) String() string {
	if p.Items != nil {
		return strings.Join(p.Items, "\n")
	}
	return p.Text
}

// Split returns the trimmed non-empty entries. Arrays are used as given,
// strings are split on sep.
func (p ProfileText) Split(sep string) []string {
	parts := p.Items
	if parts == nil {
		parts = strings.Split(p.Text, sep)
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type CVProfile struct {
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	Location   string      `json:"location"`
	LinkedIn   string      `json:"linkedin"`
	Summary    string      `json:"summary"`
	Experience ProfileText `json:"experience"`
	Education  ProfileText `json:"education"`
	Skills     ProfileText `json:"skills"`
}

type CVRequest struct {
	Profile  CVProfile
	Template string
}

type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
}

// CVDocument is the deterministic template rendering of a profile.
type CVDocument struct {
	PersonalInfo        PersonalInfo `json:"personal_info"`
	ProfessionalSummary string       `json:"professional_summary"`
	Experience          []string     `json:"experience"`
	Education           []string     `json:"education"`
	Skills              []string     `json:"skills"`
	Template            string       `json:"template"`
}

// CVArtifact holds either the vendor's structured reply or a CVDocument.
type CVArtifact struct {
	Document    any
	AIGenerated bool
}

// CVWriter produces CV content. Implementations never fail on vendor errors;
// they fall back to the template.
type CVWriter interface {
	WriteCV(ctx context.Context, req CVRequest) (*CVArtifact, error)
}

// BuildCVTemplate renders a profile without any vendor call.
func BuildCVTemplate(profile CVProfile, template string) CVDocument {
	if template == "" {
		template = DefaultCVTemplate
	}
	summary := strings.TrimSpace(profile.Summary)
	if summary == "" {
		summary = DefaultCVSummary
	}
	return CVDocument{
		PersonalInfo: PersonalInfo{
			Name:     profile.Name,
			Email:    profile.Email,
			Phone:    profile.Phone,
			Location: profile.Location,
			LinkedIn: profile.LinkedIn,
		},
		ProfessionalSummary: summary,
		Experience:          profile.Experience.Split("\n"),
		Education:           profile.Education.Split("\n"),
		Skills:              profile.Skills.Split(","),
		Template:            template,
	}
}

func buildCVPrompt(profile CVProfile, template string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a professional CV in %s style with the following information:\n\n", template)
	b.WriteString("Personal Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", profile.Name)
	fmt.Fprintf(&b, "- Email: %s\n", profile.Email)
	fmt.Fprintf(&b, "- Phone: %s\n", profile.Phone)
	fmt.Fprintf(&b, "- Location: %s\n", profile.Location)
	fmt.Fprintf(&b, "- LinkedIn: %s\n\n", profile.LinkedIn)
	fmt.Fprintf(&b, "Professional Summary:\n%s\n\n", profile.Summary)
	fmt.Fprintf(&b, "Work Experience:\n%s\n\n", profile.Experience.String())
	fmt.Fprintf(&b, "Education:\n%s\n\n", profile.Education.String())
	fmt.Fprintf(&b, "Skills:\n%s\n\n", profile.Skills.String())
	b.WriteString("Please format this as a professional CV with appropriate sections, bullet points, and professional language.\n")
	b.WriteString("Return the content in a structured JSON format.")
	return b.String()
}

// parseCVReply extracts a JSON object from a chat reply, tolerating
// markdown code fences.
func parseCVReply(content string) (map[string]any, bool) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(content), &doc); err != nil || doc == nil {
		return nil, false
	}
	return doc, true
}

// OpenAICVWriter asks a chat completion model for CV content.
type OpenAICVWriter struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOpenAICVWriter(apiKey, baseURL, model string, httpClient *http.Client, logger *zap.Logger) *OpenAICVWriter {
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(model) == "" {
		model = defaultOpenAIModel
	}
	return &OpenAICVWriter{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    trimBaseURL(baseURL, defaultOpenAIBaseURL),
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (w *OpenAICVWriter) HasCredentials() bool {
	return w != nil && w.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (w *OpenAICVWriter) WriteCV(ctx context.Context, req CVRequest) (*CVArtifact, error) {
	if req.Template == "" {
		req.Template = DefaultCVTemplate
	}
	fallback := &CVArtifact{Document: BuildCVTemplate(req.Profile, req.Template)}

	if !w.HasCredentials() {
		return fallback, nil
	}

	content, err := w.complete(ctx, buildCVPrompt(req.Profile, req.Template))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		w.logger.Warn("cv completion failed, using template", zap.Error(err))
		return fallback, nil
	}
	doc, ok := parseCVReply(content)
	if !ok {
		w.logger.Warn("cv completion was not a json object, using template")
		return fallback, nil
	}
	return &CVArtifact{Document: doc, AIGenerated: true}, nil
}

func (w *OpenAICVWriter) complete(ctx context.Context, prompt string) (string, error) {
	httpReq, err := newJSONRequest(ctx, http.MethodPost, w.baseURL+"/v1/chat/completions", chatRequest{
		Model: w.model,
		Messages: []chatMessage{
			{Role: "system", Content: cvSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   2000,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+w.apiKey)

	resp, err := w.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", readStatusError(resp)
	}
	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return payload.Choices[0].Message.Content, nil
}

var _ CVWriter = (*OpenAICVWriter)(nil)
