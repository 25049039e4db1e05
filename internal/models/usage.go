package models

import "time"

// UsageAnalytics records one debited feature call.
type UsageAnalytics struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserEmail   string    `json:"user_email" gorm:"not null;index:idx_usage_user"`
	FeatureType string    `json:"feature_type" gorm:"not null"`
	CreditsUsed int       `json:"credits_used" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"index:idx_usage_date"`
}

func (UsageAnalytics) TableName() string {
	return "usage_analytics"
}
