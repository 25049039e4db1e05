package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/resendlabs/resend-go"
	"github.com/sefazor/designstudio-backend/internal/models"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// sender is the part of the Resend client used here.
type sender interface {
	Send(params *resend.SendEmailRequest) (resend.SendEmailResponse, error)
}

type Config struct {
	APIKey      string
	FromAddress string
	FromName    string
	AppURL      string
}

type EmailService struct {
	sender   sender
	from     string
	fromName string
	appURL   string
	logger   *zap.Logger
}

// NewEmailService returns nil when no API key is configured; a nil
// service drops every message.
func NewEmailService(cfg Config, logger *zap.Logger) *EmailService {
	if cfg.APIKey == "" {
		return nil
	}
	return newEmailService(resend.NewClient(cfg.APIKey).Emails, cfg, logger)
}

func newEmailService(s sender, cfg Config, logger *zap.Logger) *EmailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailService{
		sender:   s,
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
		appURL:   cfg.AppURL,
		logger:   logger,
	}
}

func (s *EmailService) SendWelcomeEmail(email, name string) error {
	if s == nil {
		return nil
	}
	s.logger.Info("sending welcome email", zap.String("email", email))

	templateData := map[string]interface{}{
		"Name":    name,
		"Email":   email,
		"Credits": models.DefaultCredits,
		"Quota":   models.QuotaFor(models.PlanFree),
		"AppURL":  s.appURL,
		"Year":    time.Now().Year(),
	}

	html, err := s.parseTemplate("welcome.html", templateData)
	if err != nil {
		s.logger.Error("failed to render welcome email", zap.String("email", email), zap.Error(err))
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{email},
		Subject: "Welcome to AI Design Studio!",
		Html:    html,
	}

	resp, err := s.sender.Send(params)
	if err != nil {
		s.logger.Error("failed to send welcome email", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("send welcome email: %w", err)
	}

	s.logger.Info("welcome email sent", zap.String("email", email), zap.String("id", resp.Id))
	return nil
}

func (s *EmailService) parseTemplate(templateName string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}
