package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sefazor/designstudio-backend/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, email string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Update("last_login", at).Error
}

// ApplyUsage increments the feature counter and subtracts cost from the
// balance in one statement. ErrNotFound means no row matched.
func (r *UserRepository) ApplyUsage(ctx context.Context, email, counterColumn string, cost int) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			counterColumn: gorm.Expr(counterColumn+" + ?", 1),
			"ai_credits":  gorm.Expr("ai_credits - ?", cost),
		})
	if result.Error != nil {
		return fmt.Errorf("apply usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpgradePlan switches the plan and adds the plan's credit grant.
func (r *UserRepository) UpgradePlan(ctx context.Context, email string, plan models.Plan, credits int) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"plan":       plan,
			"ai_credits": gorm.Expr("ai_credits + ?", credits),
		})
	if result.Error != nil {
		return fmt.Errorf("upgrade plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}
