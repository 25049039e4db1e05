package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/repository"
	"github.com/sefazor/designstudio-backend/internal/testutil"
	"github.com/sefazor/designstudio-backend/pkg/jwt"
	"github.com/sefazor/designstudio-backend/pkg/payment"
	"github.com/sefazor/designstudio-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingMailer struct {
	sent chan string
}

func (m *recordingMailer) SendWelcomeEmail(email, _ string) error {
	m.sent <- email
	return nil
}

func newAuthService(t *testing.T) (*AuthService, *gorm.DB, *recordingMailer) {
	t.Helper()
	db := testutil.NewDB(t)
	mailer := &recordingMailer{sent: make(chan string, 1)}
	svc := NewAuthService(repository.NewUserRepository(db), jwt.NewManager("test-secret", time.Hour), utils.NewValidator(), mailer, nil)
	return svc, db, mailer
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	return svcErr.Reason
}

func TestSignup(t *testing.T) {
	svc, db, mailer := newAuthService(t)

	resp, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:    "  Ada@Example.com ",
		Password: testutil.TestPassword,
		Name:     "Ada",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, models.PlanFree, resp.User.Plan)
	assert.Equal(t, models.DefaultCredits, resp.User.Credits)

	email, err := svc.Authenticate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)

	select {
	case sent := <-mailer.sent:
		assert.Equal(t, "ada@example.com", sent)
	case <-time.After(time.Second):
		t.Fatal("welcome email not sent")
	}

	stored := testutil.Reload(t, db, "ada@example.com")
	assert.NotEqual(t, testutil.TestPassword, stored.Password)
}

func TestSignupValidation(t *testing.T) {
	svc, db, _ := newAuthService(t)
	testutil.CreateUser(t, db, "taken@example.com", models.PlanFree, 100)

	cases := []struct {
		name   string
		req    models.SignupRequest
		kind   Kind
		reason string
	}{
		{"missing name", models.SignupRequest{Email: "a@example.com", Password: testutil.TestPassword}, KindInvalidInput, "All fields are required"},
		{"bad email", models.SignupRequest{Email: "nope", Password: testutil.TestPassword, Name: "A"}, KindInvalidInput, "Invalid email format"},
		{"weak password", models.SignupRequest{Email: "a@example.com", Password: "password", Name: "A"}, KindInvalidInput, "Password must be at least 8 characters with uppercase letter and number"},
		{"duplicate", models.SignupRequest{Email: "TAKEN@example.com", Password: testutil.TestPassword, Name: "A"}, KindConflict, "Email already exists"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tc.req)
			assert.Equal(t, tc.kind, KindOf(err))
			assert.Equal(t, tc.reason, reasonOf(t, err))
		})
	}
}

func TestLogin(t *testing.T) {
	svc, db, _ := newAuthService(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanPro, 40)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ADA@example.com", Password: testutil.TestPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, 40, resp.User.Credits)
	assert.NotNil(t, testutil.Reload(t, db, "ada@example.com").LastLogin)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "Wrong1234"})
	assert.Equal(t, KindUnauthenticated, KindOf(err))
	assert.Equal(t, "Invalid email or password", reasonOf(t, err))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: testutil.TestPassword})
	assert.Equal(t, "Invalid email or password", reasonOf(t, err))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com"})
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestLoginRejectsUnhashedPassword(t *testing.T) {
	svc, db, _ := newAuthService(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanFree, 100)
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "ada@example.com").
		Update("password", testutil.TestPassword).Error)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: testutil.TestPassword})
	assert.Equal(t, KindUnauthenticated, KindOf(err))
	assert.Equal(t, "Invalid email or password", reasonOf(t, err))
	assert.Nil(t, testutil.Reload(t, db, "ada@example.com").LastLogin)
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, db, _ := newAuthService(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanFree, 100)
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "ada@example.com").Update("is_active", false).Error)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: testutil.TestPassword})
	assert.Equal(t, "Account is disabled", reasonOf(t, err))
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Authenticate("not-a-token")
	assert.Equal(t, KindUnauthenticated, KindOf(err))
	assert.Equal(t, "Invalid token", reasonOf(t, err))

	other, err := jwt.NewManager("other-secret", time.Hour).GenerateToken("ada@example.com")
	require.NoError(t, err)
	_, err = svc.Authenticate(other)
	assert.Equal(t, "Invalid token", reasonOf(t, err))
}

func TestUserProfile(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanPro, 77)
	svc := NewUserService(repository.NewUserRepository(db), repository.NewUsageRepository(db))

	profile, err := svc.GetProfile(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, profile.Plan)
	assert.Equal(t, 77, profile.Credits)

	_, err = svc.GetProfile(context.Background(), "ghost@example.com")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestDesignLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewDesignService(repository.NewDesignRepository(db))
	ctx := context.Background()

	designs, err := svc.List(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotNil(t, designs)
	assert.Empty(t, designs)

	created, err := svc.Create(ctx, "ada@example.com", models.SaveDesignRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Untitled Design", created.Name)
	assert.Equal(t, "{}", created.Data)

	name := "Poster"
	updated, err := svc.Update(ctx, "ada@example.com", created.ID, models.UpdateDesignRequest{
		Name: &name,
		Data: json.RawMessage(`{"layers":[1,2]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Poster", updated.Name)
	assert.JSONEq(t, `{"layers":[1,2]}`, updated.Data)

	_, err = svc.Get(ctx, "bob@example.com", created.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, KindNotFound, KindOf(svc.Delete(ctx, "bob@example.com", created.ID)))

	require.NoError(t, svc.Delete(ctx, "ada@example.com", created.ID))
	assert.Equal(t, KindNotFound, KindOf(svc.Delete(ctx, "ada@example.com", created.ID)))
}

func TestDesignDataForms(t *testing.T) {
	assert.Equal(t, "{}", designData(nil, "{}"))
	assert.Equal(t, "{}", designData(json.RawMessage("null"), "{}"))
	assert.Equal(t, `{"a":1}`, designData(json.RawMessage(`"{\"a\":1}"`), "{}"))
	assert.Equal(t, `[1, 2]`, designData(json.RawMessage(` [1, 2] `), "{}"))
}

func TestDesignBlankName(t *testing.T) {
	svc := NewDesignService(repository.NewDesignRepository(testutil.NewDB(t)))
	blank := "   "

	_, err := svc.Create(context.Background(), "ada@example.com", models.SaveDesignRequest{Name: &blank})
	assert.Equal(t, "Design name is required", reasonOf(t, err))
}

type fakeCheckout struct {
	err      error
	metadata map[string]string
}

func (f *fakeCheckout) CreateCheckoutSession(_ string, priceID string, metadata map[string]string) (*payment.Checkout, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.metadata = metadata
	return &payment.Checkout{ID: "cs_" + priceID, URL: "https://checkout.stripe.com/pay/cs_" + priceID, Metadata: metadata}, nil
}

var testPrices = map[models.Plan]string{models.PlanPro: "price_pro", models.PlanEnterprise: "price_ent"}

func TestUpgradeWithoutCheckoutAppliesDirectly(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanFree, 10)
	svc := NewPlanService(db, nil, nil, utils.NewValidator(), nil)

	result, err := svc.Upgrade(context.Background(), "ada@example.com", models.UpgradeRequest{Plan: "Pro"})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, 1000, result.CreditsAdded)

	user := testutil.Reload(t, db, "ada@example.com")
	assert.Equal(t, models.PlanPro, user.Plan)
	assert.Equal(t, 1010, user.AICredits)
}

func TestUpgradeRejectsInvalidPlan(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanFree, 10)
	svc := NewPlanService(db, nil, nil, utils.NewValidator(), nil)

	for _, plan := range []string{"", "free", "platinum"} {
		_, err := svc.Upgrade(context.Background(), "ada@example.com", models.UpgradeRequest{Plan: plan})
		assert.Equal(t, "Invalid plan", reasonOf(t, err), plan)
	}

	_, err := svc.Upgrade(context.Background(), "ghost@example.com", models.UpgradeRequest{Plan: "pro"})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUpgradeThroughCheckoutAppliesOnce(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanFree, 10)
	checkout := &fakeCheckout{}
	svc := NewPlanService(db, checkout, testPrices, utils.NewValidator(), nil)
	ctx := context.Background()

	result, err := svc.Upgrade(ctx, "ada@example.com", models.UpgradeRequest{Plan: "enterprise"})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, "cs_price_ent", result.SessionID)
	assert.Contains(t, result.CheckoutURL, "checkout.stripe.com")
	assert.Equal(t, "enterprise", checkout.metadata["plan"])
	assert.Equal(t, models.PlanFree, testutil.Reload(t, db, "ada@example.com").Plan)

	event := &payment.Event{Type: "checkout.session.completed", Session: payment.Checkout{ID: result.SessionID}}
	require.NoError(t, svc.HandleCheckoutEvent(ctx, event))
	require.NoError(t, svc.HandleCheckoutEvent(ctx, event))

	user := testutil.Reload(t, db, "ada@example.com")
	assert.Equal(t, models.PlanEnterprise, user.Plan)
	assert.Equal(t, 5010, user.AICredits)

	purchase, err := repository.NewPlanPurchaseRepository(db).GetBySessionID(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusCompleted, purchase.Status)

	purchases, err := svc.Purchases(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, models.PlanEnterprise, purchases[0].Plan)

	none, err := svc.Purchases(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.NotNil(t, none)
}

func TestExpiredCheckoutIsMarkedFailed(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanFree, 10)
	svc := NewPlanService(db, &fakeCheckout{}, testPrices, utils.NewValidator(), nil)
	ctx := context.Background()

	result, err := svc.Upgrade(ctx, "ada@example.com", models.UpgradeRequest{Plan: "pro"})
	require.NoError(t, err)

	require.NoError(t, svc.HandleCheckoutEvent(ctx, &payment.Event{Type: "checkout.session.expired", Session: payment.Checkout{ID: result.SessionID}}))
	// a late completion for a failed checkout changes nothing
	require.NoError(t, svc.HandleCheckoutEvent(ctx, &payment.Event{Type: "checkout.session.completed", Session: payment.Checkout{ID: result.SessionID}}))

	assert.Equal(t, models.PlanFree, testutil.Reload(t, db, "ada@example.com").Plan)
	require.NoError(t, svc.HandleCheckoutEvent(ctx, &payment.Event{Type: "customer.created"}))
	require.NoError(t, svc.HandleCheckoutEvent(ctx, &payment.Event{Type: "checkout.session.completed", Session: payment.Checkout{ID: "cs_unknown"}}))
}

func TestUpgradeCheckoutFailure(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "ada@example.com", models.PlanFree, 10)
	svc := NewPlanService(db, &fakeCheckout{err: errors.New("stripe down")}, testPrices, utils.NewValidator(), nil)

	_, err := svc.Upgrade(context.Background(), "ada@example.com", models.UpgradeRequest{Plan: "pro"})
	assert.Equal(t, KindVendorUnavailable, KindOf(err))
	assert.Equal(t, "Payment service unavailable", reasonOf(t, err))

	svc = NewPlanService(db, &fakeCheckout{}, map[models.Plan]string{}, utils.NewValidator(), nil)
	_, err = svc.Upgrade(context.Background(), "ada@example.com", models.UpgradeRequest{Plan: "pro"})
	assert.Equal(t, KindVendorUnavailable, KindOf(err))
}
