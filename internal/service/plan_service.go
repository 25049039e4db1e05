package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/repository"
	"github.com/sefazor/designstudio-backend/pkg/payment"
	"github.com/sefazor/designstudio-backend/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CheckoutProvider opens a hosted payment page for a price.
type CheckoutProvider interface {
	CreateCheckoutSession(userEmail string, priceID string, metadata map[string]string) (*payment.Checkout, error)
}

// PlanService upgrades plans, directly when no checkout provider is
// configured and through a paid checkout otherwise.
type PlanService struct {
	db        *gorm.DB
	userRepo  *repository.UserRepository
	purchases *repository.PlanPurchaseRepository
	checkout  CheckoutProvider
	prices    map[models.Plan]string
	validator *utils.Validator
	logger    *zap.Logger
}

func NewPlanService(db *gorm.DB, checkout CheckoutProvider, prices map[models.Plan]string, validator *utils.Validator, logger *zap.Logger) *PlanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanService{
		db:        db,
		userRepo:  repository.NewUserRepository(db),
		purchases: repository.NewPlanPurchaseRepository(db),
		checkout:  checkout,
		prices:    prices,
		validator: validator,
		logger:    logger,
	}
}

func (s *PlanService) Upgrade(ctx context.Context, email string, req models.UpgradeRequest) (*models.UpgradeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidInput("Invalid plan")
	}
	plan, _ := models.ParsePlan(req.Plan)

	if _, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("User not found")
		}
		return nil, err
	}

	if s.checkout == nil {
		if err := s.userRepo.UpgradePlan(ctx, email, plan, plan.UpgradeCredits()); err != nil {
			return nil, err
		}
		s.logger.Info("plan upgraded", zap.String("email", email), zap.String("plan", string(plan)))
		return &models.UpgradeResult{Plan: plan, Applied: true, CreditsAdded: plan.UpgradeCredits()}, nil
	}

	priceID := s.prices[plan]
	if priceID == "" {
		return nil, vendorUnavailable("Payments are not available for this plan", nil)
	}

	session, err := s.checkout.CreateCheckoutSession(email, priceID, map[string]string{
		"user_email": email,
		"plan":       string(plan),
	})
	if err != nil {
		s.logger.Error("checkout session failed", zap.String("email", email), zap.Error(err))
		return nil, vendorUnavailable("Payment service unavailable", err)
	}

	purchase := &models.PlanPurchase{
		UserEmail:       email,
		Plan:            plan,
		Credits:         plan.UpgradeCredits(),
		StripeSessionID: session.ID,
		Status:          models.PurchaseStatusPending,
	}
	if err := s.purchases.Create(ctx, purchase); err != nil {
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	return &models.UpgradeResult{Plan: plan, CheckoutURL: session.URL, SessionID: session.ID}, nil
}

// Purchases lists the caller's checkouts, newest first.
func (s *PlanService) Purchases(ctx context.Context, email string) ([]models.PlanPurchase, error) {
	purchases, err := s.purchases.GetUserPurchaseHistory(ctx, email)
	if err != nil {
		return nil, err
	}
	if purchases == nil {
		purchases = []models.PlanPurchase{}
	}
	return purchases, nil
}

// HandleCheckoutEvent applies a completed checkout exactly once and marks
// expired or failed checkouts. Unknown sessions and event types are ignored.
func (s *PlanService) HandleCheckoutEvent(ctx context.Context, event *payment.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return s.completePurchase(ctx, event.Session.ID)
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		if _, err := s.purchases.MarkStatus(ctx, event.Session.ID, models.PurchaseStatusFailed); err != nil {
			return fmt.Errorf("mark purchase failed: %w", err)
		}
		return nil
	default:
		s.logger.Debug("ignoring stripe event", zap.String("type", event.Type))
		return nil
	}
}

func (s *PlanService) completePurchase(ctx context.Context, sessionID string) error {
	purchase, err := s.purchases.GetBySessionID(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("checkout completed for unknown session", zap.String("session_id", sessionID))
		return nil
	}
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := repository.NewPlanPurchaseRepository(tx).MarkStatus(ctx, sessionID, models.PurchaseStatusCompleted)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		if err := repository.NewUserRepository(tx).UpgradePlan(ctx, purchase.UserEmail, purchase.Plan, purchase.Credits); err != nil {
			return err
		}
		s.logger.Info("plan purchase completed",
			zap.String("email", purchase.UserEmail),
			zap.String("plan", string(purchase.Plan)),
			zap.String("session_id", sessionID))
		return nil
	})
}
