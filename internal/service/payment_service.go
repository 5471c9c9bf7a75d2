package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/internal/pricing"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
	"github.com/noah-isme/diagnostic-academy-api/pkg/payments"
)

const (
	msgAlreadyPaid       = "This test has already been paid for"
	msgPaymentVerified   = "Payment verified successfully! Your test is now unlocked."
	msgPaymentIncomplete = "Payment has not been completed"
)

type checkoutGateway interface {
	CreateSession(ctx context.Context, in payments.CheckoutInput) (*payments.Session, error)
	GetSession(ctx context.Context, id string) (*payments.Session, error)
}

type paymentAttemptRepo interface {
	attemptReader
	SetCheckoutSession(ctx context.Context, id, sessionID string) error
	MarkPaid(ctx context.Context, id string, amountCents int64) (bool, error)
	ClearStaleSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

type paymentNotifier interface {
	PaymentReceipt(ctx context.Context, userID, attemptID string, amountCents int64)
}

// PaymentConfig holds checkout settings. SuccessURL and CancelURL may contain
// {ATTEMPT_ID}; Stripe itself fills {CHECKOUT_SESSION_ID}.
type PaymentConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
	SessionTTL time.Duration
}

// PaymentService opens checkouts and confirms payments.
type PaymentService struct {
	attempts  paymentAttemptRepo
	tests     testReader
	gateway   checkoutGateway
	notifier  paymentNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       PaymentConfig
	now       func() time.Time
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(attempts paymentAttemptRepo, tests testReader, gateway checkoutGateway, notifier paymentNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg PaymentConfig) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &PaymentService{
		attempts:  attempts,
		tests:     tests,
		gateway:   gateway,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CreateCheckout opens a hosted checkout for an unpaid attempt of the caller.
func (s *PaymentService) CreateCheckout(ctx context.Context, claims *models.JWTClaims, req models.CreateCheckoutRequest) (*models.CheckoutResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid checkout payload")
	}
	attempt, err := loadOwnedAttempt(ctx, s.attempts, req.AttemptID, claims.UserID)
	if err != nil {
		return nil, err
	}
	if attempt.IsPaid() {
		return nil, appErrors.Clone(appErrors.ErrConflict, msgAlreadyPaid)
	}
	test, err := loadTest(ctx, s.tests, attempt.TestID)
	if err != nil {
		return nil, err
	}

	amount := pricing.CheckoutAmount(attempt.GradeLevel)
	session, err := s.gateway.CreateSession(ctx, payments.CheckoutInput{
		AttemptID:     attempt.ID,
		UserID:        claims.UserID,
		CustomerEmail: claims.Email,
		ProductName:   fmt.Sprintf("%s (%s)", test.Title, models.GradeLabel(attempt.GradeLevel)),
		AmountCents:   amount,
		Currency:      s.cfg.Currency,
		SuccessURL:    expandAttemptURL(s.cfg.SuccessURL, attempt.ID),
		CancelURL:     expandAttemptURL(s.cfg.CancelURL, attempt.ID),
	})
	if err != nil {
		s.metrics.RecordPayment("checkout", "error")
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to create checkout session")
	}
	// An unrecorded session can never verify.
	if err := s.attempts.SetCheckoutSession(ctx, attempt.ID, session.ID); err != nil {
		s.metrics.RecordPayment("checkout", "error")
		s.logger.Error("failed to record checkout session", zap.String("attempt_id", attempt.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record checkout session")
	}
	s.metrics.RecordPayment("checkout", "created")

	return &models.CheckoutResponse{URL: session.URL}, nil
}

// VerifyPayment confirms a checkout session and unlocks the attempt. Only the
// session last recorded on the attempt is accepted, so a swept or replaced
// session no longer verifies. Calling it again after success is harmless.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID string, req models.VerifyPaymentRequest) (*models.Outcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}
	attempt, err := loadOwnedAttempt(ctx, s.attempts, req.AttemptID, userID)
	if err != nil {
		return nil, err
	}
	if attempt.IsPaid() {
		return &models.Outcome{Success: true, Message: msgPaymentVerified}, nil
	}

	if attempt.StripeSessionID == nil || *attempt.StripeSessionID != req.SessionID {
		s.metrics.RecordPayment("verify", "mismatch")
		return nil, appErrors.Clone(appErrors.ErrValidation, "checkout session does not belong to this attempt")
	}

	session, err := s.gateway.GetSession(ctx, req.SessionID)
	if err != nil {
		s.metrics.RecordPayment("verify", "error")
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to fetch checkout session")
	}
	if session.Metadata[payments.MetadataAttemptID] != attempt.ID {
		s.metrics.RecordPayment("verify", "mismatch")
		return nil, appErrors.Clone(appErrors.ErrValidation, "checkout session does not belong to this attempt")
	}
	if !session.Paid {
		s.metrics.RecordPayment("verify", "unpaid")
		return &models.Outcome{Success: false, Message: msgPaymentIncomplete}, nil
	}

	updated, err := s.attempts.MarkPaid(ctx, attempt.ID, session.AmountTotal)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment status")
	}
	if updated {
		s.metrics.RecordPayment("verify", "paid")
		s.logger.Info("payment verified", zap.String("attempt_id", attempt.ID), zap.Int64("amount", session.AmountTotal))
		s.notifier.PaymentReceipt(ctx, userID, attempt.ID, session.AmountTotal)
	}
	return &models.Outcome{Success: true, Message: msgPaymentVerified}, nil
}

// SweepStaleSessions forgets checkout sessions opened more than the session TTL
// ago on attempts that are still unpaid.
func (s *PaymentService) SweepStaleSessions(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.cfg.SessionTTL)
	cleared, err := s.attempts.ClearStaleSessions(ctx, cutoff)
	if err != nil {
		s.metrics.RecordPayment("sweep", "error")
		return 0, err
	}
	if cleared > 0 {
		s.logger.Info("cleared stale checkout sessions", zap.Int64("count", cleared))
	}
	s.metrics.RecordPayment("sweep", "ok")
	return cleared, nil
}

func expandAttemptURL(raw, attemptID string) string {
	return strings.ReplaceAll(raw, "{ATTEMPT_ID}", attemptID)
}
