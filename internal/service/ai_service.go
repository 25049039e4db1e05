package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/pkg/ai"
	"github.com/sefazor/designstudio-backend/pkg/utils"
	"go.uber.org/zap"
)

const (
	reasonCVQuota = "Please upgrade to generate more CVs"
	reasonBusy    = "Another request is still in progress, please try again shortly"

	defaultReserveWait = 15 * time.Second
)

// Ledger is the quota and billing side of a feature call.
type Ledger interface {
	Reserve(ctx context.Context, email string) (func(), error)
	CheckQuota(ctx context.Context, email string, feature models.FeatureType) (Decision, error)
	Debit(ctx context.Context, email string, feature models.FeatureType) error
}

// ArtifactStore persists generated files and returns their public URL.
type ArtifactStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type AIServiceOptions struct {
	// VideoTimeout bounds a whole video call, polling included.
	VideoTimeout time.Duration
	// ReserveWait bounds how long a call queues behind the same user's
	// in-flight call.
	ReserveWait time.Duration
	// Store is optional; without it no public URLs are returned.
	Store ArtifactStore
	// ArtifactKey names uploaded objects.
	ArtifactKey func(kind, contentType string, now time.Time) string
}

// AIService runs every feature call as validate, check, call, debit.
type AIService struct {
	ledger    Ledger
	gateway   *ai.Gateway
	validator *utils.Validator
	opts      AIServiceOptions
	logger    *zap.Logger
}

func NewAIService(ledger Ledger, gateway *ai.Gateway, validator *utils.Validator, opts AIServiceOptions, logger *zap.Logger) *AIService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.VideoTimeout <= 0 {
		opts.VideoTimeout = 70 * time.Second
	}
	if opts.ReserveWait <= 0 {
		opts.ReserveWait = defaultReserveWait
	}
	if opts.ArtifactKey == nil {
		opts.ArtifactKey = func(kind, _ string, now time.Time) string {
			return fmt.Sprintf("%s/%d", kind, now.UnixNano())
		}
	}
	return &AIService{
		ledger:    ledger,
		gateway:   gateway,
		validator: validator,
		opts:      opts,
		logger:    logger,
	}
}

func (s *AIService) GenerateImage(ctx context.Context, email string, req models.GenerateImageRequest) (*models.ImageResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if err := checkText(prompt, "Prompt"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	release, err := s.admit(ctx, email, models.FeatureImage)
	if err != nil {
		return nil, err
	}
	defer release()

	artifact, err := s.gateway.Images.GenerateImage(ctx, ai.ImageRequest{
		Prompt: prompt,
		Style:  req.Style,
		Width:  req.Width,
		Height: req.Height,
	})
	if err != nil {
		return nil, s.vendorFailure(email, models.FeatureImage, "Image generation service unavailable", err)
	}

	if err := s.ledger.Debit(ctx, email, models.FeatureImage); err != nil {
		return nil, err
	}

	return &models.ImageResult{
		Success:     true,
		Image:       artifact.DataURL(),
		ImageURL:    s.persist(ctx, email, "images", artifact.ContentType, artifact.Data),
		Prompt:      prompt,
		CreditsUsed: models.FeatureImage.Cost(),
	}, nil
}

func (s *AIService) RemoveBackground(ctx context.Context, email string, req models.RemoveBackgroundRequest) (*models.BackgroundResult, error) {
	if strings.TrimSpace(req.Image) == "" {
		return nil, invalidInput("Image data is required")
	}
	image, err := ai.DecodeImagePayload(req.Image)
	if err != nil {
		if errors.Is(err, ai.ErrEmptyImage) {
			return nil, invalidInput("Image data is required")
		}
		return nil, invalidInput("Invalid image data")
	}

	release, err := s.admit(ctx, email, models.FeatureBackground)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := s.gateway.Backgrounds.RemoveBackground(ctx, image)
	if err != nil {
		return nil, s.vendorFailure(email, models.FeatureBackground, "Background removal service unavailable", err)
	}

	if err := s.ledger.Debit(ctx, email, models.FeatureBackground); err != nil {
		return nil, err
	}

	return &models.BackgroundResult{
		Success:           true,
		Image:             result.DataURL(),
		BackgroundRemoved: result.Removed,
		CreditsUsed:       models.FeatureBackground.Cost(),
	}, nil
}

func (s *AIService) GenerateVideo(ctx context.Context, email string, req models.GenerateVideoRequest) (*models.VideoResult, error) {
	text := strings.TrimSpace(req.Text)
	if err := checkText(text, "Text"); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	release, err := s.admit(ctx, email, models.FeatureVideo)
	if err != nil {
		return nil, err
	}
	defer release()

	videoCtx, cancel := context.WithTimeout(ctx, s.opts.VideoTimeout)
	defer cancel()

	video, err := s.gateway.Videos.GenerateVideo(videoCtx, ai.VideoRequest{
		Text:     text,
		ImageURL: strings.TrimSpace(req.ImageURL),
		Voice:    strings.TrimSpace(req.VoiceType),
	})
	if err != nil {
		return nil, s.vendorFailure(email, models.FeatureVideo, "Video generation service unavailable", err)
	}

	if err := s.ledger.Debit(ctx, email, models.FeatureVideo); err != nil {
		return nil, err
	}

	return &models.VideoResult{
		Success:     true,
		VideoURL:    video.URL,
		Text:        text,
		CreditsUsed: models.FeatureVideo.Cost(),
	}, nil
}

// GenerateCV is gated by the image quota and never debited.
func (s *AIService) GenerateCV(ctx context.Context, email string, req models.GenerateCVRequest) (*models.CVResult, error) {
	profile := req.UserData
	profile.Name = strings.TrimSpace(profile.Name)
	profile.Email = strings.TrimSpace(profile.Email)
	if profile.Name == "" || profile.Email == "" {
		return nil, invalidInput("Name and email are required")
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	template := strings.TrimSpace(req.TemplateType)
	if template == "" {
		template = ai.DefaultCVTemplate
	}

	decision, err := s.ledger.CheckQuota(ctx, email, models.FeatureImage)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, quotaExceeded(reasonCVQuota)
	}

	artifact, err := s.gateway.CVs.WriteCV(ctx, ai.CVRequest{Profile: profile, Template: template})
	if err != nil {
		return nil, s.vendorFailure(email, "cv", "CV generation service unavailable", err)
	}

	return &models.CVResult{
		Success:     true,
		CV:          artifact.Document,
		Template:    template,
		AIGenerated: artifact.AIGenerated,
	}, nil
}

// admit takes the user's reservation and checks the quota. On success the
// caller owns the returned release func.
func (s *AIService) admit(ctx context.Context, email string, feature models.FeatureType) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.opts.ReserveWait)
	defer cancel()
	release, err := s.ledger.Reserve(waitCtx, email)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("reservation wait expired",
				zap.String("email", email),
				zap.String("feature", string(feature)))
			return nil, busy(reasonBusy, err)
		}
		return nil, fmt.Errorf("reserve quota: %w", err)
	}

	decision, err := s.ledger.CheckQuota(ctx, email, feature)
	if err != nil {
		release()
		return nil, err
	}
	if !decision.Allowed {
		release()
		s.logger.Info("quota denied",
			zap.String("email", email),
			zap.String("feature", string(feature)),
			zap.String("reason", decision.Reason))
		return nil, quotaExceeded(decision.Reason)
	}
	return release, nil
}

func (s *AIService) vendorFailure(email string, feature models.FeatureType, fallbackReason string, err error) error {
	reason := fallbackReason
	var vendorErr *ai.VendorError
	if errors.As(err, &vendorErr) && vendorErr.Reason != "" {
		reason = vendorErr.Reason
	}
	s.logger.Error("vendor call failed",
		zap.String("email", email),
		zap.String("feature", string(feature)),
		zap.Error(err))
	return vendorUnavailable(reason, err)
}

// persist uploads an artifact after the debit. Failures only cost the URL.
func (s *AIService) persist(ctx context.Context, email, kind, contentType string, data []byte) string {
	if s.opts.Store == nil {
		return ""
	}
	key := s.opts.ArtifactKey(kind, contentType, time.Now())
	url, err := s.opts.Store.Upload(ctx, key, contentType, data)
	if err != nil {
		s.logger.Warn("artifact upload failed", zap.String("email", email), zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}

func (s *AIService) validate(req any) error {
	if err := s.validator.Struct(req); err != nil {
		return invalidInput(utils.Message(err))
	}
	return nil
}

func checkText(text, field string) error {
	if text == "" {
		return invalidInput(field + " is required")
	}
	if utf8.RuneCountInString(text) > models.MaxTextLength {
		return invalidInput(fmt.Sprintf("%s too long (max %d characters)", field, models.MaxTextLength))
	}
	return nil
}
