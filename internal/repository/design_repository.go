package repository

import (
	"context"

	"github.com/sefazor/designstudio-backend/internal/models"
	"gorm.io/gorm"
)

// DesignRepository scopes every query to the owning user.
type DesignRepository struct {
	db *gorm.DB
}

func NewDesignRepository(db *gorm.DB) *DesignRepository {
	return &DesignRepository{db: db}
}

func (r *DesignRepository) Create(ctx context.Context, design *models.Design) error {
	return r.db.WithContext(ctx).Create(design).Error
}

func (r *DesignRepository) ListByUser(ctx context.Context, email string) ([]models.Design, error) {
	var designs []models.Design
	err := r.db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("created_at DESC").Order("id DESC").
		Find(&designs).Error
	return designs, err
}

func (r *DesignRepository) GetByID(ctx context.Context, email string, id uint) (*models.Design, error) {
	var design models.Design
	err := r.db.WithContext(ctx).Where("id = ? AND user_email = ?", id, email).First(&design).Error
	if err != nil {
		return nil, translate(err)
	}
	return &design, nil
}

func (r *DesignRepository) Update(ctx context.Context, design *models.Design) error {
	return r.db.WithContext(ctx).Save(design).Error
}

// Delete removes the design when it belongs to email. ErrNotFound otherwise.
func (r *DesignRepository) Delete(ctx context.Context, email string, id uint) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_email = ?", id, email).Delete(&models.Design{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DesignRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Design{}).Count(&count).Error
	return count, err
}
