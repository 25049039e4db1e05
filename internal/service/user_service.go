package service

import (
	"context"
	"errors"

	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/repository"
)

type UserService struct {
	userRepo  *repository.UserRepository
	usageRepo *repository.UsageRepository
}

func NewUserService(userRepo *repository.UserRepository, usageRepo *repository.UsageRepository) *UserService {
	return &UserService{
		userRepo:  userRepo,
		usageRepo: usageRepo,
	}
}

func (s *UserService) GetProfile(ctx context.Context, email string) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

func (s *UserService) UsageHistory(ctx context.Context, email string) ([]models.UsageAnalytics, error) {
	return s.usageRepo.ListByUser(ctx, email)
}
