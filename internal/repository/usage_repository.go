package repository

import (
	"context"

	"github.com/sefazor/designstudio-backend/internal/models"
	"gorm.io/gorm"
)

type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) Record(ctx context.Context, entry *models.UsageAnalytics) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *UsageRepository) ListByUser(ctx context.Context, email string) ([]models.UsageAnalytics, error) {
	var entries []models.UsageAnalytics
	err := r.db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}
