package models

import "github.com/sefazor/designstudio-backend/pkg/ai"

// MaxTextLength bounds prompts and narration text.
const MaxTextLength = 1000

type GenerateImageRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style" validate:"omitempty,max=64"`
	Width  int    `json:"width" validate:"omitempty,min=256,max=2048"`
	Height int    `json:"height" validate:"omitempty,min=256,max=2048"`
}

type RemoveBackgroundRequest struct {
	Image string `json:"image"`
}

type GenerateVideoRequest struct {
	Text      string `json:"text"`
	ImageURL  string `json:"image_url" validate:"omitempty,url"`
	VoiceType string `json:"voice_type" validate:"omitempty,max=64"`
}

type GenerateCVRequest struct {
	UserData     ai.CVProfile `json:"user_data"`
	TemplateType string       `json:"template_type" validate:"omitempty,max=32"`
}

type ImageResult struct {
	Success     bool   `json:"success"`
	Image       string `json:"image"`
	ImageURL    string `json:"image_url,omitempty"`
	Prompt      string `json:"prompt"`
	CreditsUsed int    `json:"credits_used"`
}

type BackgroundResult struct {
	Success           bool   `json:"success"`
	Image             string `json:"image"`
	BackgroundRemoved bool   `json:"background_removed"`
	CreditsUsed       int    `json:"credits_used"`
}

type VideoResult struct {
	Success     bool   `json:"success"`
	VideoURL    string `json:"video_url"`
	Text        string `json:"text"`
	CreditsUsed int    `json:"credits_used"`
}

type CVResult struct {
	Success     bool   `json:"success"`
	CV          any    `json:"cv"`
	Template    string `json:"template"`
	AIGenerated bool   `json:"ai_generated"`
}
