package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}

// Enabled reports whether artifact uploads are configured.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Bucket != ""
}

type StripeConfig struct {
	SecretKey         string
	WebhookSecret     string
	PriceIDPro        string
	PriceIDEnterprise string
	SuccessURL        string
	CancelURL         string
}

func (c StripeConfig) Enabled() bool {
	return c.SecretKey != ""
}

type EmailConfig struct {
	ResendAPIKey string
	FromAddress  string
	FromName     string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	Database int
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type AIConfig struct {
	StabilityAPIKey     string
	StabilityBaseURL    string
	PollinationsBaseURL string
	RemoveBGAPIKey      string
	RemoveBGBaseURL     string
	DIDAPIKey           string
	DIDBaseURL          string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string

	VideoPollInterval time.Duration
	VideoPollAttempts int
	VideoTimeout      time.Duration
	// ReserveWait bounds queueing behind the same user's in-flight call.
	ReserveWait time.Duration
}

// QuotaConfig holds the opt-in ledger rules.
type QuotaConfig struct {
	EnforceBackgroundQuota bool
	StrictCreditCheck      bool
}

type Config struct {
	Port        string
	AppEnv      string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration
	CORSOrigins string
	FrontendURL string

	AI     AIConfig
	Quota  QuotaConfig
	R2     R2Config
	Stripe StripeConfig
	Email  EmailConfig
	Redis  RedisConfig
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		AppEnv:      getEnv("APP_ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", "sqlite://designstudio.db"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTTL:      getEnvDuration("JWT_TTL", 7*24*time.Hour),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8000,http://127.0.0.1:3000,http://127.0.0.1:8000"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	// AI vendors
	cfg.AI = AIConfig{
		StabilityAPIKey:     os.Getenv("STABILITY_API_KEY"),
		StabilityBaseURL:    os.Getenv("STABILITY_BASE_URL"),
		PollinationsBaseURL: os.Getenv("POLLINATIONS_BASE_URL"),
		RemoveBGAPIKey:      os.Getenv("REMOVEBG_API_KEY"),
		RemoveBGBaseURL:     os.Getenv("REMOVEBG_BASE_URL"),
		DIDAPIKey:           os.Getenv("DID_API_KEY"),
		DIDBaseURL:          os.Getenv("DID_BASE_URL"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:       os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		VideoPollInterval:   getEnvDuration("VIDEO_POLL_INTERVAL", 2*time.Second),
		VideoPollAttempts:   getEnvInt("VIDEO_POLL_ATTEMPTS", 30),
		VideoTimeout:        getEnvDuration("VIDEO_TIMEOUT", 70*time.Second),
		ReserveWait:         getEnvDuration("RESERVE_WAIT", 15*time.Second),
	}

	cfg.Quota = QuotaConfig{
		EnforceBackgroundQuota: getEnvBool("ENFORCE_BACKGROUND_QUOTA", false),
		StrictCreditCheck:      getEnvBool("STRICT_CREDIT_CHECK", false),
	}

	// R2 config
	cfg.R2 = R2Config{
		AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		Bucket:          os.Getenv("R2_BUCKET"),
		PublicURL:       os.Getenv("R2_PUBLIC_URL"),
	}

	cfg.Stripe = StripeConfig{
		SecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret:     os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PriceIDPro:        os.Getenv("STRIPE_PRICE_PRO"),
		PriceIDEnterprise: os.Getenv("STRIPE_PRICE_ENTERPRISE"),
		SuccessURL:        getEnv("STRIPE_SUCCESS_URL", cfg.FrontendURL+"/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         getEnv("STRIPE_CANCEL_URL", cfg.FrontendURL+"/billing/cancel"),
	}

	cfg.Email = EmailConfig{
		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		FromAddress:  getEnv("EMAIL_FROM_ADDRESS", "noreply@designstudio.app"),
		FromName:     getEnv("EMAIL_FROM_NAME", "AI Design Studio"),
	}

	cfg.Redis = RedisConfig{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     getEnvInt("REDIS_PORT", 6379),
		Password: os.Getenv("REDIS_PASSWORD"),
		Database: getEnvInt("REDIS_DB", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.AI.VideoPollAttempts <= 0 {
		errs = append(errs, errors.New("VIDEO_POLL_ATTEMPTS must be positive"))
	}
	if c.AI.VideoPollInterval <= 0 {
		errs = append(errs, errors.New("VIDEO_POLL_INTERVAL must be positive"))
	}
	if bound := c.VideoPollBound(); c.AI.VideoTimeout <= bound {
		errs = append(errs, fmt.Errorf("VIDEO_TIMEOUT (%s) must exceed poll interval x attempts (%s)", c.AI.VideoTimeout, bound))
	}
	for _, origin := range c.AllowedOrigins() {
		// credentialed CORS cannot be combined with a wildcard origin
		if strings.Contains(origin, "*") {
			errs = append(errs, fmt.Errorf("CORS_ORIGINS must list explicit origins, got %q", origin))
		}
	}
	if len(c.AllowedOrigins()) == 0 {
		errs = append(errs, errors.New("CORS_ORIGINS must list at least one origin"))
	}
	return errors.Join(errs...)
}

// VideoPollBound is the longest time the video poller can wait.
func (c *Config) VideoPollBound() time.Duration {
	return c.AI.VideoPollInterval * time.Duration(c.AI.VideoPollAttempts)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AllowedOrigins returns CORS_ORIGINS split on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	// bare integers are seconds
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
