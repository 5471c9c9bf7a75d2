package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/internal/pricing"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
)

type attemptReader interface {
	FindByID(ctx context.Context, id string) (*models.TestAttempt, error)
}

type testReader interface {
	FindByID(ctx context.Context, id string) (*models.Test, error)
}

type attemptCreator interface {
	attemptReader
	Create(ctx context.Context, attempt *models.TestAttempt) error
}

// loadOwnedAttempt re-validates that the attempt exists and belongs to the caller.
func loadOwnedAttempt(ctx context.Context, repo attemptReader, attemptID, userID string) (*models.TestAttempt, error) {
	attempt, err := repo.FindByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test attempt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test attempt")
	}
	if attempt.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "test attempt belongs to another user")
	}
	return attempt, nil
}

func loadTest(ctx context.Context, repo testReader, testID string) (*models.Test, error) {
	test, err := repo.FindByID(ctx, testID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test")
	}
	return test, nil
}

// AttemptService starts attempts.
type AttemptService struct {
	attempts  attemptCreator
	tests     testReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttemptService constructs an AttemptService.
func NewAttemptService(attempts attemptCreator, tests testReader, validate *validator.Validate, logger *zap.Logger) *AttemptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttemptService{attempts: attempts, tests: tests, validator: validate, logger: logger}
}

// Create starts a pending attempt at a test and quotes its price.
func (s *AttemptService) Create(ctx context.Context, userID string, req models.CreateAttemptRequest) (*models.CreateAttemptResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attempt payload")
	}
	test, err := loadTest(ctx, s.tests, req.TestID)
	if err != nil {
		return nil, err
	}

	attempt := &models.TestAttempt{
		UserID:        userID,
		TestID:        test.ID,
		GradeLevel:    test.GradeLevel,
		PaymentStatus: models.PaymentPending,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create test attempt")
	}
	s.logger.Info("attempt started", zap.String("attempt_id", attempt.ID), zap.String("test_id", test.ID))

	return &models.CreateAttemptResponse{Attempt: attempt, AmountCents: pricing.CheckoutAmount(attempt.GradeLevel)}, nil
}
