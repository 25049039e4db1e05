// Package ai wraps the external AI vendors behind small interfaces. Every
// client degrades to a fallback or a typed error instead of panicking.
package ai

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Options struct {
	StabilityAPIKey     string
	StabilityBaseURL    string
	PollinationsBaseURL string

	RemoveBGAPIKey  string
	RemoveBGBaseURL string

	DIDAPIKey    string
	DIDBaseURL   string
	PollInterval time.Duration
	PollAttempts int

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Features reports which vendors run with real credentials.
type Features struct {
	TextToImage       bool `json:"image_generation"`
	BackgroundRemoval bool `json:"background_removal"`
	TextToVideo       bool `json:"video_generation"`
	CVGeneration      bool `json:"cv_generation"`
}

type Gateway struct {
	Images      ImageGenerator
	Backgrounds BackgroundRemover
	Videos      VideoGenerator
	CVs         CVWriter

	features Features
}

func NewGateway(opts Options) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}

	stability := NewStabilityClient(opts.StabilityAPIKey, opts.StabilityBaseURL, httpClient)
	pollinations := NewPollinationsClient(opts.PollinationsBaseURL, httpClient)
	removeBG := NewRemoveBGClient(opts.RemoveBGAPIKey, opts.RemoveBGBaseURL, httpClient, logger.Named("removebg"))
	did := NewDIDClient(opts.DIDAPIKey, opts.DIDBaseURL, httpClient)
	openai := NewOpenAICVWriter(opts.OpenAIAPIKey, opts.OpenAIBaseURL, opts.OpenAIModel, httpClient, logger.Named("openai"))

	return &Gateway{
		Images:      NewImageChain(stability, pollinations, logger.Named("image")),
		Backgrounds: removeBG,
		Videos: NewDIDVideoGenerator(did, Poller{
			Interval:    opts.PollInterval,
			MaxAttempts: opts.PollAttempts,
		}, logger.Named("d-id")),
		CVs: openai,
		features: Features{
			// the keyless fallback keeps image generation available
			TextToImage:       true,
			BackgroundRemoval: removeBG.HasCredentials(),
			TextToVideo:       did.HasCredentials(),
			CVGeneration:      true,
		},
	}
}

func (g *Gateway) Features() Features {
	return g.features
}
