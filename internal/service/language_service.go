package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/locale"
	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
)

// LanguageService reads and writes the caller's interface language.
type LanguageService struct {
	provider  *locale.Provider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLanguageService constructs a LanguageService.
func NewLanguageService(provider *locale.Provider, validate *validator.Validate, logger *zap.Logger) *LanguageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LanguageService{provider: provider, validator: validate, logger: logger}
}

// Get returns the stored preference. A store outage falls back to the default language.
func (s *LanguageService) Get(ctx context.Context, userID string) *models.LanguageResponse {
	lang, err := s.provider.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("language preference unavailable", zap.String("user_id", userID), zap.Error(err))
	}
	return &models.LanguageResponse{Language: lang, Name: locale.Name(lang)}
}

// Set validates and stores the preference.
func (s *LanguageService) Set(ctx context.Context, userID string, req models.LanguageRequest) (*models.LanguageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid language payload")
	}
	lang, err := s.provider.Set(ctx, userID, req.Language)
	if errors.Is(err, locale.ErrUnsupported) {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported language")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store language preference")
	}
	return &models.LanguageResponse{Language: lang, Name: locale.Name(lang)}, nil
}
