package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/internal/repository"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
)

// Client facing coupon messages.
const (
	MsgCouponInvalid      = "Invalid or expired coupon code"
	MsgCouponExpired      = "This coupon has expired"
	MsgCouponLimitReached = "This coupon has reached its usage limit"
	MsgCouponAlreadyUsed  = "You have already used this coupon"
	MsgCouponNoAttempt    = "Test attempt not found"
	MsgCouponAttemptPaid  = msgAlreadyPaid
	MsgCouponApplied      = "Coupon applied successfully! Your test is now unlocked."
)

type couponRepo interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	HasRedemption(ctx context.Context, couponID, userID string) (bool, error)
	Redeem(ctx context.Context, redemption *models.CouponRedemption) error
}

// CouponService applies discount codes to attempts.
type CouponService struct {
	coupons   couponRepo
	attempts  attemptReader
	notifier  paymentNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCouponService constructs a CouponService.
func NewCouponService(coupons couponRepo, attempts attemptReader, notifier paymentNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CouponService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CouponService{
		coupons:   coupons,
		attempts:  attempts,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Redeem validates the code in a fixed order and, when every rule passes,
// unlocks the attempt. Rule failures come back as an unsuccessful Outcome; only
// malformed input and storage failures are returned as errors.
func (s *CouponService) Redeem(ctx context.Context, userID string, req models.RedeemCouponRequest) (*models.Outcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coupon payload")
	}

	coupon, err := s.coupons.FindByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coupon")
	}
	if coupon == nil || !coupon.IsActive {
		return s.reject("invalid", MsgCouponInvalid), nil
	}
	if coupon.ExpiredAt(s.now()) {
		return s.reject("expired", MsgCouponExpired), nil
	}
	if coupon.Exhausted() {
		return s.reject("limit_reached", MsgCouponLimitReached), nil
	}

	used, err := s.coupons.HasRedemption(ctx, coupon.ID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check coupon usage")
	}
	if used {
		return s.reject("already_used", MsgCouponAlreadyUsed), nil
	}

	attempt, err := s.attempts.FindByID(ctx, req.AttemptID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test attempt")
	}
	if attempt == nil || attempt.UserID != userID {
		return s.reject("attempt_not_found", MsgCouponNoAttempt), nil
	}
	if attempt.IsPaid() {
		return s.reject("attempt_paid", MsgCouponAttemptPaid), nil
	}

	// The checks above can race with a concurrent redemption; the transaction
	// re-enforces each of them and reports which one lost.
	err = s.coupons.Redeem(ctx, &models.CouponRedemption{CouponID: coupon.ID, UserID: userID, AttemptID: attempt.ID})
	switch {
	case errors.Is(err, repository.ErrCouponAlreadyRedeemed):
		return s.reject("already_used", MsgCouponAlreadyUsed), nil
	case errors.Is(err, repository.ErrCouponExpired):
		return s.reject("expired", MsgCouponExpired), nil
	case errors.Is(err, repository.ErrCouponExhausted):
		return s.reject("limit_reached", MsgCouponLimitReached), nil
	case errors.Is(err, repository.ErrAttemptUnavailable):
		return s.reject("attempt_paid", MsgCouponAttemptPaid), nil
	case err != nil:
		s.metrics.RecordCouponRedemption("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to redeem coupon")
	}

	s.metrics.RecordCouponRedemption("applied")
	s.logger.Info("coupon redeemed", zap.String("coupon_id", coupon.ID), zap.String("attempt_id", attempt.ID))
	s.notifier.PaymentReceipt(ctx, userID, attempt.ID, 0)
	return &models.Outcome{Success: true, Message: MsgCouponApplied}, nil
}

func (s *CouponService) reject(reason, message string) *models.Outcome {
	s.metrics.RecordCouponRedemption(reason)
	return &models.Outcome{Success: false, Message: message}
}
