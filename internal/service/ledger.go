package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	reasonUserNotFound        = "User not found"
	reasonInsufficientCredits = "Insufficient credits. Please upgrade your plan."
)

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

type LedgerOptions struct {
	// EnforceBackgroundQuota applies the plan's background cap.
	EnforceBackgroundQuota bool
	// StrictCreditCheck denies when the balance is below the feature cost
	// instead of only when it is exhausted.
	StrictCreditCheck bool
}

// CreditLedger decides whether a user may use a feature and records usage.
type CreditLedger struct {
	db     *gorm.DB
	users  *repository.UserRepository
	locks  *userLocks
	opts   LedgerOptions
	logger *zap.Logger
}

func NewCreditLedger(db *gorm.DB, opts LedgerOptions, logger *zap.Logger) *CreditLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditLedger{
		db:     db,
		users:  repository.NewUserRepository(db),
		locks:  newUserLocks(),
		opts:   opts,
		logger: logger,
	}
}

// Reserve serializes quota decisions for one user. The caller must invoke
// the returned release func once its check, vendor call and debit are done.
func (l *CreditLedger) Reserve(ctx context.Context, email string) (func(), error) {
	return l.locks.acquire(ctx, email)
}

// CheckQuota is read-only. The error is non-nil only for storage failures.
func (l *CreditLedger) CheckQuota(ctx context.Context, email string, feature models.FeatureType) (Decision, error) {
	user, err := l.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return deny(reasonUserNotFound), nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("load user: %w", err)
	}

	quota := models.QuotaFor(user.Plan)
	switch feature {
	case models.FeatureImage:
		if user.ImagesGenerated >= quota.Image {
			return deny("Image generation quota exceeded. %d images per month allowed.", quota.Image), nil
		}
	case models.FeatureVideo:
		if user.VideosGenerated >= quota.Video {
			return deny("Video generation quota exceeded. %d videos per month allowed.", quota.Video), nil
		}
	case models.FeatureBackground:
		if l.opts.EnforceBackgroundQuota && user.BackgroundsRemoved >= quota.Background {
			return deny("Background removal quota exceeded. %d removals per month allowed.", quota.Background), nil
		}
	default:
		return Decision{}, fmt.Errorf("unknown feature type %q", feature)
	}

	if user.AICredits <= 0 || (l.opts.StrictCreditCheck && user.AICredits < feature.Cost()) {
		return deny(reasonInsufficientCredits), nil
	}
	return allow(), nil
}

// Debit records one successful use of feature: the counter and balance
// change and the analytics row are written in a single transaction.
func (l *CreditLedger) Debit(ctx context.Context, email string, feature models.FeatureType) error {
	if !feature.Valid() {
		return fmt.Errorf("unknown feature type %q", feature)
	}
	cost := feature.Cost()

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).ApplyUsage(ctx, email, feature.CounterColumn(), cost); err != nil {
			return err
		}
		return repository.NewUsageRepository(tx).Record(ctx, &models.UsageAnalytics{
			UserEmail:   email,
			FeatureType: string(feature),
			CreditsUsed: cost,
		})
	})
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(reasonUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("debit %s for %s: %w", feature, email, err)
	}

	l.logger.Debug("credits debited",
		zap.String("email", email),
		zap.String("feature", string(feature)),
		zap.Int("cost", cost))
	return nil
}
