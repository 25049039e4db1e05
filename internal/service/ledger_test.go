package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckQuotaDecisionOrder(t *testing.T) {
	db := testutil.NewDB(t)
	ledger := NewCreditLedger(db, LedgerOptions{}, nil)
	ctx := context.Background()

	d, err := ledger.CheckQuota(ctx, "ghost@example.com", models.FeatureImage)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, "User not found", d.Reason)

	testutil.CreateUser(t, db, "capped@example.com", models.PlanFree, 0)
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "capped@example.com").
		Updates(map[string]any{"images_generated": 50, "videos_generated": 5}).Error)

	d, err = ledger.CheckQuota(ctx, "capped@example.com", models.FeatureImage)
	require.NoError(t, err)
	assert.Equal(t, "Image generation quota exceeded. 50 images per month allowed.", d.Reason)

	d, err = ledger.CheckQuota(ctx, "capped@example.com", models.FeatureVideo)
	require.NoError(t, err)
	assert.Equal(t, "Video generation quota exceeded. 5 videos per month allowed.", d.Reason)

	d, err = ledger.CheckQuota(ctx, "capped@example.com", models.FeatureBackground)
	require.NoError(t, err)
	assert.Equal(t, "Insufficient credits. Please upgrade your plan.", d.Reason)
}

func TestCheckQuotaZeroCreditsDeniesEverything(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "broke@example.com", models.PlanPro, 0)
	ledger := NewCreditLedger(db, LedgerOptions{}, nil)

	for _, feature := range []models.FeatureType{models.FeatureImage, models.FeatureVideo, models.FeatureBackground} {
		d, err := ledger.CheckQuota(context.Background(), "broke@example.com", feature)
		require.NoError(t, err)
		assert.False(t, d.Allowed, feature)
		assert.Equal(t, reasonInsufficientCredits, d.Reason, feature)
	}
}

func TestCheckQuotaIsReadOnly(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanFree, 3)
	ledger := NewCreditLedger(db, LedgerOptions{}, nil)

	for i := 0; i < 5; i++ {
		d, err := ledger.CheckQuota(context.Background(), "ada@example.com", models.FeatureVideo)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	user := testutil.Reload(t, db, "ada@example.com")
	assert.Equal(t, 3, user.AICredits)
	assert.Equal(t, 0, user.VideosGenerated)
}

func TestCheckQuotaBackgroundCapIsOptIn(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanFree, 100)
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "ada@example.com").
		Update("backgrounds_removed", 20).Error)
	ctx := context.Background()

	d, err := NewCreditLedger(db, LedgerOptions{}, nil).CheckQuota(ctx, "ada@example.com", models.FeatureBackground)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = NewCreditLedger(db, LedgerOptions{EnforceBackgroundQuota: true}, nil).CheckQuota(ctx, "ada@example.com", models.FeatureBackground)
	require.NoError(t, err)
	assert.Equal(t, "Background removal quota exceeded. 20 removals per month allowed.", d.Reason)
}

func TestCheckQuotaStrictCredits(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanFree, 3)
	ctx := context.Background()

	d, err := NewCreditLedger(db, LedgerOptions{}, nil).CheckQuota(ctx, "ada@example.com", models.FeatureVideo)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = NewCreditLedger(db, LedgerOptions{StrictCreditCheck: true}, nil).CheckQuota(ctx, "ada@example.com", models.FeatureVideo)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, reasonInsufficientCredits, d.Reason)
}

func TestDebitUpdatesCountersAndAnalytics(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanFree, 100)
	ledger := NewCreditLedger(db, LedgerOptions{}, nil)
	ctx := context.Background()

	require.NoError(t, ledger.Debit(ctx, "ada@example.com", models.FeatureImage))
	require.NoError(t, ledger.Debit(ctx, "ada@example.com", models.FeatureVideo))
	require.NoError(t, ledger.Debit(ctx, "ada@example.com", models.FeatureBackground))

	user := testutil.Reload(t, db, "ada@example.com")
	assert.Equal(t, 100-1-5-1, user.AICredits)
	assert.Equal(t, 1, user.ImagesGenerated)
	assert.Equal(t, 1, user.VideosGenerated)
	assert.Equal(t, 1, user.BackgroundsRemoved)

	var rows []models.UsageAnalytics
	require.NoError(t, db.Order("id").Find(&rows).Error)
	require.Len(t, rows, 3)
	assert.Equal(t, "image", rows[0].FeatureType)
	assert.Equal(t, 5, rows[1].CreditsUsed)
	assert.Equal(t, "background", rows[2].FeatureType)
}

func TestDebitUnknownUser(t *testing.T) {
	db := testutil.NewDB(t)
	ledger := NewCreditLedger(db, LedgerOptions{}, nil)

	err := ledger.Debit(context.Background(), "ghost@example.com", models.FeatureImage)
	assert.Equal(t, KindNotFound, KindOf(err))

	var count int64
	require.NoError(t, db.Model(&models.UsageAnalytics{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestVideoDebitMayGoNegative(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanFree, 2)
	ledger := NewCreditLedger(db, LedgerOptions{}, nil)

	require.NoError(t, ledger.Debit(context.Background(), "ada@example.com", models.FeatureVideo))
	assert.Equal(t, -3, testutil.Reload(t, db, "ada@example.com").AICredits)
}

func TestReserveSerializesPerUser(t *testing.T) {
	ledger := NewCreditLedger(testutil.NewDB(t), LedgerOptions{}, nil)
	ctx := context.Background()

	release, err := ledger.Reserve(ctx, "ada@example.com")
	require.NoError(t, err)

	// other users are not blocked
	other, err := ledger.Reserve(ctx, "bob@example.com")
	require.NoError(t, err)
	other()

	acquired := make(chan struct{})
	go func() {
		r, err := ledger.Reserve(ctx, "ada@example.com")
		if err == nil {
			close(acquired)
			r()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second reservation acquired while the first was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second reservation never acquired")
	}
}

func TestReserveHonoursCancellation(t *testing.T) {
	ledger := NewCreditLedger(testutil.NewDB(t), LedgerOptions{}, nil)

	release, err := ledger.Reserve(context.Background(), "ada@example.com")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = ledger.Reserve(ctx, "ada@example.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUserLocksAreReclaimed(t *testing.T) {
	locks := newUserLocks()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.acquire(context.Background(), "ada@example.com")
			if err != nil {
				return
			}
			release()
			release()
		}()
	}
	wg.Wait()
	assert.Zero(t, locks.size())
}
