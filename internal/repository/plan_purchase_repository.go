package repository

import (
	"context"

	"github.com/sefazor/designstudio-backend/internal/models"
	"gorm.io/gorm"
)

type PlanPurchaseRepository struct {
	db *gorm.DB
}

func NewPlanPurchaseRepository(db *gorm.DB) *PlanPurchaseRepository {
	return &PlanPurchaseRepository{
		db: db,
	}
}

func (r *PlanPurchaseRepository) Create(ctx context.Context, purchase *models.PlanPurchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *PlanPurchaseRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.PlanPurchase, error) {
	var purchase models.PlanPurchase
	err := r.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID).First(&purchase).Error
	if err != nil {
		return nil, translate(err)
	}
	return &purchase, nil
}

// MarkStatus moves a purchase out of pending. It reports false when the
// purchase was no longer pending, which makes webhook redelivery a no-op.
func (r *PlanPurchaseRepository) MarkStatus(ctx context.Context, sessionID, status string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PlanPurchase{}).
		Where("stripe_session_id = ? AND status = ?", sessionID, models.PurchaseStatusPending).
		Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PlanPurchaseRepository) GetUserPurchaseHistory(ctx context.Context, email string) ([]models.PlanPurchase, error) {
	var purchases []models.PlanPurchase
	err := r.db.WithContext(ctx).Where("user_email = ?", email).
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, err
}
