package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
	"github.com/noah-isme/diagnostic-academy-api/pkg/payments"
)

func pendingAttempt(id, userID string, grade int) *models.TestAttempt {
	return &models.TestAttempt{ID: id, UserID: userID, TestID: "test-1", GradeLevel: grade, PaymentStatus: models.PaymentPending}
}

func withSession(a *models.TestAttempt, sessionID string, opened time.Time) *models.TestAttempt {
	a.StripeSessionID = &sessionID
	a.CheckoutStarted = &opened
	return a
}

func newPaymentServiceForTest(attempts *fakeAttemptRepo, gateway *fakeGateway, notifier *fakeNotifier) *PaymentService {
	tests := newFakeTestRepo(&models.Test{ID: "test-1", Title: "Math Diagnostic", GradeLevel: 4})
	return NewPaymentService(attempts, tests, gateway, notifier, nil, nil, nil, PaymentConfig{
		SuccessURL: "https://app.test/success?attempt={ATTEMPT_ID}&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://app.test/tests",
	})
}

func TestCreateCheckoutUsesGradePricing(t *testing.T) {
	attempts := newFakeAttemptRepo(pendingAttempt("a1", "u1", 4), pendingAttempt("a2", "u1", 9))
	gateway := &fakeGateway{}
	svc := newPaymentServiceForTest(attempts, gateway, &fakeNotifier{})
	claims := &models.JWTClaims{UserID: "u1", Email: "u1@example.com"}

	res, err := svc.CreateCheckout(context.Background(), claims, models.CreateCheckoutRequest{AttemptID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/cs_test_1", res.URL)

	_, err = svc.CreateCheckout(context.Background(), claims, models.CreateCheckoutRequest{AttemptID: "a2"})
	require.NoError(t, err)

	require.Len(t, gateway.created, 2)
	assert.Equal(t, int64(9900), gateway.created[0].AmountCents)
	assert.Equal(t, int64(12000), gateway.created[1].AmountCents)
	assert.Equal(t, "https://app.test/success?attempt=a1&session_id={CHECKOUT_SESSION_ID}", gateway.created[0].SuccessURL)
	assert.Equal(t, "cs_test_1", attempts.sessions["a1"])
}

func TestCreateCheckoutFailures(t *testing.T) {
	attempts := newFakeAttemptRepo(paidAttempt("paid", "u1"), pendingAttempt("other", "u2", 3), pendingAttempt("a1", "u1", 3))
	claims := &models.JWTClaims{UserID: "u1"}

	svc := newPaymentServiceForTest(attempts, &fakeGateway{}, &fakeNotifier{})
	_, err := svc.CreateCheckout(context.Background(), claims, models.CreateCheckoutRequest{AttemptID: "paid"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	_, err = svc.CreateCheckout(context.Background(), claims, models.CreateCheckoutRequest{AttemptID: "other"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = svc.CreateCheckout(context.Background(), claims, models.CreateCheckoutRequest{AttemptID: "ghost"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	failing := newPaymentServiceForTest(attempts, &fakeGateway{err: errors.New("stripe down")}, &fakeNotifier{})
	_, err = failing.CreateCheckout(context.Background(), claims, models.CreateCheckoutRequest{AttemptID: "a1"})
	assert.ErrorIs(t, err, appErrors.ErrUpstream)

	attempts.setErr = errors.New("db down")
	_, err = svc.CreateCheckout(context.Background(), claims, models.CreateCheckoutRequest{AttemptID: "a1"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Nil(t, attempts.get("a1").StripeSessionID)
}

func TestVerifyPaymentMarksAttemptPaid(t *testing.T) {
	attempts := newFakeAttemptRepo(withSession(pendingAttempt("a1", "u1", 4), "cs_1", time.Now()))
	notifier := &fakeNotifier{}
	gateway := &fakeGateway{session: &payments.Session{
		ID: "cs_1", Paid: true, AmountTotal: 9900,
		Metadata: map[string]string{payments.MetadataAttemptID: "a1"},
	}}
	svc := newPaymentServiceForTest(attempts, gateway, notifier)

	out, err := svc.VerifyPayment(context.Background(), "u1", models.VerifyPaymentRequest{SessionID: "cs_1", AttemptID: "a1"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, msgPaymentVerified, out.Message)
	assert.True(t, attempts.get("a1").IsPaid())
	assert.Equal(t, int64(9900), *attempts.get("a1").AmountPaid)
	assert.Equal(t, []int64{9900}, notifier.receipts)

	again, err := svc.VerifyPayment(context.Background(), "u1", models.VerifyPaymentRequest{SessionID: "cs_1", AttemptID: "a1"})
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.Len(t, notifier.receipts, 1)
}

func TestVerifyPaymentUnpaidAndMismatch(t *testing.T) {
	attempts := newFakeAttemptRepo(withSession(pendingAttempt("a1", "u1", 4), "cs_1", time.Now()))
	gateway := &fakeGateway{session: &payments.Session{ID: "cs_1", Metadata: map[string]string{payments.MetadataAttemptID: "a1"}}}
	svc := newPaymentServiceForTest(attempts, gateway, &fakeNotifier{})

	out, err := svc.VerifyPayment(context.Background(), "u1", models.VerifyPaymentRequest{SessionID: "cs_1", AttemptID: "a1"})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.False(t, attempts.get("a1").IsPaid())

	gateway.session = &payments.Session{ID: "cs_1", Paid: true, Metadata: map[string]string{payments.MetadataAttemptID: "someone-else"}}
	_, err = svc.VerifyPayment(context.Background(), "u1", models.VerifyPaymentRequest{SessionID: "cs_1", AttemptID: "a1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.False(t, attempts.get("a1").IsPaid())
}

func TestVerifyPaymentRejectsReplacedSession(t *testing.T) {
	attempts := newFakeAttemptRepo(withSession(pendingAttempt("a1", "u1", 4), "cs_new", time.Now()))
	gateway := &fakeGateway{session: &payments.Session{
		ID: "cs_old", Paid: true, AmountTotal: 9900,
		Metadata: map[string]string{payments.MetadataAttemptID: "a1"},
	}}
	notifier := &fakeNotifier{}
	svc := newPaymentServiceForTest(attempts, gateway, notifier)

	_, err := svc.VerifyPayment(context.Background(), "u1", models.VerifyPaymentRequest{SessionID: "cs_old", AttemptID: "a1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.False(t, attempts.get("a1").IsPaid())
	assert.Empty(t, notifier.receipts)
}

func TestSweptSessionNoLongerVerifies(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	attempts := newFakeAttemptRepo(
		withSession(pendingAttempt("stale", "u1", 4), "cs_stale", now.Add(-25*time.Hour)),
		withSession(pendingAttempt("fresh", "u1", 4), "cs_fresh", now.Add(-time.Hour)),
	)
	gateway := &fakeGateway{session: &payments.Session{
		ID: "cs_stale", Paid: true, AmountTotal: 9900,
		Metadata: map[string]string{payments.MetadataAttemptID: "stale"},
	}}
	notifier := &fakeNotifier{}
	svc := newPaymentServiceForTest(attempts, gateway, notifier)
	svc.now = func() time.Time { return now }

	cleared, err := svc.SweepStaleSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
	assert.Nil(t, attempts.get("stale").StripeSessionID)
	require.NotNil(t, attempts.get("fresh").StripeSessionID)
	assert.Equal(t, "cs_fresh", *attempts.get("fresh").StripeSessionID)

	_, err = svc.VerifyPayment(context.Background(), "u1", models.VerifyPaymentRequest{SessionID: "cs_stale", AttemptID: "stale"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.False(t, attempts.get("stale").IsPaid())
	assert.Empty(t, notifier.receipts)
}

func TestSweepStaleSessionsUsesTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	attempts := newFakeAttemptRepo(withSession(pendingAttempt("a1", "u1", 4), "cs_old", now.Add(-48*time.Hour)))
	svc := newPaymentServiceForTest(attempts, &fakeGateway{}, &fakeNotifier{})
	svc.now = func() time.Time { return now }

	cleared, err := svc.SweepStaleSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)
	assert.Equal(t, now.Add(-24*time.Hour), attempts.cleared)
}
