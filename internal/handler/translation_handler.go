package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/pkg/response"
)

type translationService interface {
	Translate(ctx context.Context, req models.TranslateQuestionsRequest) (*models.TranslateQuestionsResponse, error)
}

// TranslationHandler translates question documents.
type TranslationHandler struct {
	service translationService
}

// NewTranslationHandler constructs a TranslationHandler.
func NewTranslationHandler(svc translationService) *TranslationHandler {
	return &TranslationHandler{service: svc}
}

// Translate godoc
// @Summary Translate questions into a supported language
// @Description English returns the input unchanged. Output the model garbles falls back to the original questions.
// @Tags Translation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.TranslateQuestionsRequest true "Questions and language"
// @Success 200 {object} models.TranslateQuestionsResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 402 {object} response.ErrorBody
// @Failure 429 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /functions/translate-questions [post]
func (h *TranslationHandler) Translate(c *gin.Context) {
	var req models.TranslateQuestionsRequest
	if !bindJSON(c, &req, "invalid translation payload") {
		return
	}
	res, err := h.service.Translate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
