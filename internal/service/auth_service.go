package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/repository"
	"github.com/sefazor/designstudio-backend/pkg/bcrypt"
	jwtPkg "github.com/sefazor/designstudio-backend/pkg/jwt"
	"github.com/sefazor/designstudio-backend/pkg/utils"
	"go.uber.org/zap"
)

// WelcomeMailer sends the signup greeting.
type WelcomeMailer interface {
	SendWelcomeEmail(email, name string) error
}

type AuthService struct {
	userRepo  *repository.UserRepository
	tokens    *jwtPkg.Manager
	validator *utils.Validator
	mailer    WelcomeMailer
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthService(userRepo *repository.UserRepository, tokens *jwtPkg.Manager, validator *utils.Validator, mailer WelcomeMailer, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:  userRepo,
		tokens:    tokens,
		validator: validator,
		mailer:    mailer,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)

	if email == "" || req.Password == "" || name == "" {
		return nil, invalidInput("All fields are required")
	}
	if !s.validator.IsEmail(email) {
		return nil, invalidInput("Invalid email format")
	}
	if !s.validator.IsStrongPassword(req.Password) {
		return nil, invalidInput("Password must be at least 8 characters with uppercase letter and number")
	}

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, conflict("Email already exists")
	}

	hashedPassword, err := bcrypt.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     email,
		Password:  hashedPassword,
		Name:      name,
		Plan:      models.PlanFree,
		AICredits: models.DefaultCredits,
		IsActive:  true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// a concurrent signup may win between the check and the insert
		if taken, _ := s.userRepo.EmailExists(ctx, email); taken {
			return nil, conflict("Email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.GenerateToken(user.Email)
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		go func(email, name string) {
			if err := s.mailer.SendWelcomeEmail(email, name); err != nil {
				s.logger.Warn("welcome email failed", zap.String("email", email), zap.Error(err))
			}
		}(user.Email, user.Name)
	}

	s.logger.Info("user signed up", zap.String("email", user.Email))
	return &models.AuthResponse{Token: token, User: user.Profile()}, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, invalidInput("Email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthenticated("Invalid email or password", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.ComparePassword(user.Password, req.Password); err != nil {
		if errors.Is(err, bcrypt.ErrMalformedHash) {
			s.logger.Error("stored password is not hashed", zap.String("email", email))
		}
		return nil, unauthenticated("Invalid email or password", nil)
	}
	if !user.IsActive {
		return nil, unauthenticated("Account is disabled", nil)
	}

	now := s.now().UTC()
	if err := s.userRepo.TouchLastLogin(ctx, email, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now

	token, err := s.tokens.GenerateToken(user.Email)
	if err != nil {
		return nil, fmt.Errorf("token generation failed: %w", err)
	}

	return &models.AuthResponse{Token: token, User: user.Profile()}, nil
}

// Authenticate resolves a bearer token into the caller's email.
func (s *AuthService) Authenticate(token string) (string, error) {
	email, err := s.tokens.ValidateToken(token)
	switch {
	case errors.Is(err, jwtPkg.ErrTokenExpired):
		return "", unauthenticated("Token has expired", err)
	case err != nil:
		return "", unauthenticated("Invalid token", err)
	}
	return email, nil
}
