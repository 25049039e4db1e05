package models

import "time"

const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
)

// PlanPurchase tracks a Stripe checkout for a plan upgrade.
type PlanPurchase struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserEmail       string    `json:"user_email" gorm:"not null;index"`
	Plan            Plan      `json:"plan" gorm:"type:varchar(32);not null"`
	Credits         int       `json:"credits" gorm:"not null"`
	StripeSessionID string    `json:"stripe_session_id" gorm:"unique;not null"`
	Status          string    `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type UpgradeRequest struct {
	Plan string `json:"plan" validate:"required,plan_upgrade"`
}

type UpgradeResult struct {
	Plan         Plan   `json:"plan"`
	Applied      bool   `json:"applied"`
	CreditsAdded int    `json:"credits_added,omitempty"`
	CheckoutURL  string `json:"checkout_url,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
}
