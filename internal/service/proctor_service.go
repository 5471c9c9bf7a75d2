package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/internal/proctor"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
)

type lockWriter interface {
	attemptReader
	UpdateLock(ctx context.Context, id string, tabSwitchCount int, disabledAt *time.Time) error
}

// ProctorService persists the visibility lock of attempts.
type ProctorService struct {
	attempts  lockWriter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewProctorService constructs a ProctorService.
func NewProctorService(attempts lockWriter, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ProctorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProctorService{attempts: attempts, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// Report applies a visibility signal from the student's browser. Only the
// transition into the locked state is written; later signals never unlock.
func (s *ProctorService) Report(ctx context.Context, userID string, req models.VisibilityReportRequest) (*proctor.State, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid visibility payload")
	}
	sig, err := proctor.ParseSignal(req.Event)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid visibility event")
	}
	attempt, err := loadOwnedAttempt(ctx, s.attempts, req.AttemptID, userID)
	if err != nil {
		return nil, err
	}

	monitor := attempt.Monitor()
	wasDisabled := monitor.State().IsTestDisabled
	monitor.Apply(sig)
	state := monitor.State()

	if state.IsTestDisabled && !wasDisabled {
		at := s.now().UTC()
		if err := s.attempts.UpdateLock(ctx, attempt.ID, state.TabSwitchCount, &at); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock test attempt")
		}
		s.metrics.RecordTestLock()
		s.logger.Info("test attempt locked", zap.String("attempt_id", attempt.ID), zap.String("event", req.Event))
	}
	return &state, nil
}

// Reset unlocks an attempt on behalf of staff.
func (s *ProctorService) Reset(ctx context.Context, staffID string, req models.AttemptRequest) (*proctor.State, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset payload")
	}
	attempt, err := s.attempts.FindByID(ctx, req.AttemptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test attempt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test attempt")
	}

	monitor := attempt.Monitor()
	monitor.Reset()
	state := monitor.State()
	if err := s.attempts.UpdateLock(ctx, attempt.ID, state.TabSwitchCount, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset test lock")
	}
	s.logger.Info("test lock reset", zap.String("attempt_id", attempt.ID), zap.String("staff_id", staffID))
	return &state, nil
}
