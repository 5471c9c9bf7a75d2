package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/locale"
	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
	"github.com/noah-isme/diagnostic-academy-api/pkg/translate"
)

type completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const translationPrompt = `You translate K-12 diagnostic test content into %s.
You receive a JSON document of questions. Return the same JSON document with identical structure, keys, ids, numbers and booleans.
Translate only human readable text such as question prompts, passages, options and section titles.
Leave math expressions, variable names and numerals unchanged.
Respond with the JSON document only, no commentary and no code fences.`

// TranslationService translates question documents through an LLM and caches the results.
type TranslationService struct {
	llm       completer
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTranslationService constructs a TranslationService.
func NewTranslationService(llm completer, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *TranslationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranslationService{llm: llm, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// Translate returns the questions in the target language. English input passes
// through untouched and model output that is not JSON falls back to the originals.
func (s *TranslationService) Translate(ctx context.Context, req models.TranslateQuestionsRequest) (*models.TranslateQuestionsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid translation payload")
	}
	if !json.Valid(req.Questions) || string(req.Questions) == "null" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "questions must be a JSON document")
	}
	lang := locale.Normalize(req.TargetLanguage)
	if !locale.Supported(lang) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported language %q", req.TargetLanguage))
	}
	if lang == locale.DefaultLanguage {
		return &models.TranslateQuestionsResponse{TranslatedQuestions: req.Questions}, nil
	}

	key := translationKey(lang, req.Questions)
	var cached json.RawMessage
	if s.cache.Get(ctx, key, &cached) && len(cached) > 0 {
		return &models.TranslateQuestionsResponse{TranslatedQuestions: cached}, nil
	}

	out, err := s.llm.Complete(ctx, fmt.Sprintf(translationPrompt, locale.Name(lang)), string(req.Questions))
	switch {
	case errors.Is(err, translate.ErrRateLimited):
		return nil, appErrors.Wrap(err, appErrors.ErrRateLimited.Code, appErrors.ErrRateLimited.Status, "translation rate limit exceeded, try again shortly")
	case errors.Is(err, translate.ErrQuotaExhausted):
		return nil, appErrors.Wrap(err, appErrors.ErrPaymentRequired.Code, appErrors.ErrPaymentRequired.Status, "translation credits exhausted")
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "translation failed")
	}

	translated, ok := extractJSON(out)
	if !ok {
		s.logger.Warn("translation output was not JSON, returning originals", zap.String("language", lang))
		return &models.TranslateQuestionsResponse{TranslatedQuestions: req.Questions}, nil
	}
	s.cache.Set(ctx, key, translated, s.cacheTTL)
	return &models.TranslateQuestionsResponse{TranslatedQuestions: translated}, nil
}

func translationKey(lang string, questions []byte) string {
	sum := sha256.New()
	sum.Write([]byte(lang))
	sum.Write([]byte{0})
	sum.Write(questions)
	return "translation:" + hex.EncodeToString(sum.Sum(nil))
}

// extractJSON accepts the bare document or one wrapped in a markdown code fence.
func extractJSON(out string) (json.RawMessage, bool) {
	text := strings.TrimSpace(out)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}
	if text == "" || !json.Valid([]byte(text)) {
		return nil, false
	}
	return json.RawMessage(text), true
}
