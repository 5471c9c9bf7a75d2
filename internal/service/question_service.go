package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/internal/sanitize"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
)

// QuestionService hands out questions of paid, unlocked attempts with every answer key removed.
type QuestionService struct {
	attempts  attemptReader
	tests     testReader
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

type cachedQuestions struct {
	Test      models.TestSummary `json:"test"`
	Questions interface{}        `json:"questions"`
}

// NewQuestionService constructs a QuestionService.
func NewQuestionService(attempts attemptReader, tests testReader, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *QuestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{attempts: attempts, tests: tests, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// ensureTakeable checks that the attempt may still be worked on.
func ensureTakeable(attempt *models.TestAttempt) error {
	if !attempt.IsPaid() {
		return appErrors.Clone(appErrors.ErrPaymentRequired, "payment is required before taking this test")
	}
	if attempt.DisabledAt != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "this test was locked after leaving the test window")
	}
	return nil
}

// GetQuestions returns the sanitized questions of the caller's attempt.
func (s *QuestionService) GetQuestions(ctx context.Context, userID string, req models.AttemptRequest) (*models.TestQuestionsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid questions payload")
	}
	attempt, err := loadOwnedAttempt(ctx, s.attempts, req.AttemptID, userID)
	if err != nil {
		return nil, err
	}
	if err := ensureTakeable(attempt); err != nil {
		return nil, err
	}
	if attempt.IsCompleted() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "answers for this test were already submitted")
	}

	payload, err := s.sanitizedQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, err
	}
	return &models.TestQuestionsResponse{AttemptID: attempt.ID, Test: payload.Test, Questions: payload.Questions}, nil
}

func (s *QuestionService) sanitizedQuestions(ctx context.Context, testID string) (*cachedQuestions, error) {
	key := "questions:" + testID
	var cached cachedQuestions
	if s.cache.Get(ctx, key, &cached) && !sanitize.ContainsAnswerKey(cached.Questions) {
		return &cached, nil
	}

	test, err := loadTest(ctx, s.tests, testID)
	if err != nil {
		return nil, err
	}
	var raw interface{}
	if len(test.Questions) > 0 {
		if err := json.Unmarshal(test.Questions, &raw); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored questions are malformed")
		}
	}
	if raw == nil {
		raw = []interface{}{}
	}

	payload := &cachedQuestions{Test: test.Summary(), Questions: sanitize.StripAnswerKeys(raw)}
	s.cache.Set(ctx, key, payload, s.cacheTTL)
	return payload, nil
}
