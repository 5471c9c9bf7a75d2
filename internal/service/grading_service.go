package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/internal/scoring"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
)

type gradingResponseRepo interface {
	Grade(ctx context.Context, id, attemptID string, isCorrect bool, gradedBy string, gradedAt time.Time) error
	ListByAttempt(ctx context.Context, attemptID string) ([]models.QuestionResponse, error)
}

type scoreWriter interface {
	attemptReader
	UpdateScore(ctx context.Context, id string, result scoring.Result) error
}

type resultsNotifier interface {
	ResultsReady(ctx context.Context, userID, attemptID string)
}

// GradingService records manual grades and recomputes attempt scores. Callers
// must already be authorized as staff.
type GradingService struct {
	responses gradingResponseRepo
	attempts  scoreWriter
	notifier  resultsNotifier
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewGradingService constructs a GradingService.
func NewGradingService(responses gradingResponseRepo, attempts scoreWriter, notifier resultsNotifier, validate *validator.Validate, logger *zap.Logger) *GradingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{responses: responses, attempts: attempts, notifier: notifier, validator: validate, logger: logger, now: time.Now}
}

// GradeResponse stores one correctness decision then recomputes the aggregate.
// When the aggregate write fails the grade stays recorded and Recompute can be retried.
func (s *GradingService) GradeResponse(ctx context.Context, graderID string, req models.GradeResponseRequest) (*models.ScoreResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading payload")
	}
	if err := s.responses.Grade(ctx, req.ResponseID, req.AttemptID, *req.IsCorrect, graderID, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "response not found for this attempt")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grade response")
	}
	s.logger.Info("response graded",
		zap.String("response_id", req.ResponseID),
		zap.String("attempt_id", req.AttemptID),
		zap.String("grader_id", graderID),
		zap.Bool("is_correct", *req.IsCorrect),
	)
	return s.Recompute(ctx, req.AttemptID)
}

// Recompute re-reads every response of the attempt and persists score, tier and
// graded count. Concurrent calls converge on the last writer, which always sees
// every committed grade.
func (s *GradingService) Recompute(ctx context.Context, attemptID string) (*models.ScoreResult, error) {
	attempt, err := s.attempts.FindByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test attempt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test attempt")
	}

	responses, err := s.responses.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
	}
	result := scoring.Aggregate(models.Correctness(responses))

	if err := s.attempts.UpdateScore(ctx, attemptID, result); err != nil {
		s.logger.Error("score recompute not persisted", zap.String("attempt_id", attemptID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attempt score")
	}

	if result.PendingCount == 0 && result.TotalGraded > attempt.TotalGraded && attempt.IsCompleted() {
		s.notifier.ResultsReady(ctx, attempt.UserID, attempt.ID)
	}
	return models.NewScoreResult(result), nil
}
