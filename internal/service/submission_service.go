package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/internal/repository"
	"github.com/noah-isme/diagnostic-academy-api/internal/scoring"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
)

type submissionAttemptRepo interface {
	scoreWriter
	Complete(ctx context.Context, id string, responses []models.QuestionResponse, completedAt time.Time) error
}

// SubmissionService stores answers, grades what can be graded automatically
// and leaves the rest for staff.
type SubmissionService struct {
	attempts  submissionAttemptRepo
	tests     testReader
	notifier  resultsNotifier
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(attempts submissionAttemptRepo, tests testReader, notifier resultsNotifier, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{attempts: attempts, tests: tests, notifier: notifier, validator: validate, logger: logger, now: time.Now}
}

// Submit closes the attempt with the given answers.
func (s *SubmissionService) Submit(ctx context.Context, userID string, req models.SubmitTestRequest) (*models.ScoreResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	attempt, err := loadOwnedAttempt(ctx, s.attempts, req.AttemptID, userID)
	if err != nil {
		return nil, err
	}
	if err := ensureTakeable(attempt); err != nil {
		return nil, err
	}
	if attempt.IsCompleted() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "answers for this test were already submitted")
	}

	test, err := loadTest(ctx, s.tests, attempt.TestID)
	if err != nil {
		return nil, err
	}
	questions, err := models.ParseQuestions(test.Questions)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored questions are malformed")
	}
	byID := make(map[string]*models.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	responses, err := gradeAnswers(byID, req.Answers)
	if err != nil {
		return nil, err
	}

	if err := s.attempts.Complete(ctx, attempt.ID, responses, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrAttemptCompleted) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "answers for this test were already submitted")
		}
		if errors.Is(err, repository.ErrAttemptLocked) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "this test was locked after leaving the test window")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store answers")
	}

	result := scoring.Aggregate(models.Correctness(responses))
	if result.TotalGraded > 0 {
		if err := s.attempts.UpdateScore(ctx, attempt.ID, result); err != nil {
			// answers are stored; staff can recompute the score later
			s.logger.Error("score after submission not persisted", zap.String("attempt_id", attempt.ID), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attempt score")
		}
	}
	s.logger.Info("test submitted",
		zap.String("attempt_id", attempt.ID),
		zap.Int("graded", result.TotalGraded),
		zap.Int("pending", result.PendingCount),
	)
	if result.PendingCount == 0 {
		s.notifier.ResultsReady(ctx, userID, attempt.ID)
	}
	return models.NewScoreResult(result), nil
}

func gradeAnswers(questions map[string]*models.Question, answers []models.SubmittedAnswer) ([]models.QuestionResponse, error) {
	seen := make(map[string]struct{}, len(answers))
	responses := make([]models.QuestionResponse, 0, len(answers))
	for _, a := range answers {
		q, ok := questions[a.QuestionID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown question %q", a.QuestionID))
		}
		if _, dup := seen[a.QuestionID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %q answered twice", a.QuestionID))
		}
		seen[a.QuestionID] = struct{}{}

		resp := models.QuestionResponse{QuestionID: a.QuestionID, Answer: a.Answer}
		if correct, gradable := q.Grade(a.Answer); gradable {
			resp.IsCorrect = &correct
		}
		responses = append(responses, resp)
	}
	return responses, nil
}
