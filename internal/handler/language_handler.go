package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/pkg/response"
)

type languageService interface {
	Get(ctx context.Context, userID string) *models.LanguageResponse
	Set(ctx context.Context, userID string, req models.LanguageRequest) (*models.LanguageResponse, error)
}

// LanguageHandler manages the caller's language preference.
type LanguageHandler struct {
	service languageService
}

// NewLanguageHandler constructs a LanguageHandler.
func NewLanguageHandler(svc languageService) *LanguageHandler {
	return &LanguageHandler{service: svc}
}

// Get godoc
// @Summary Current language preference
// @Tags Preferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.LanguageResponse
// @Failure 401 {object} response.ErrorBody
// @Router /me/language [get]
func (h *LanguageHandler) Get(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	response.OK(c, h.service.Get(c.Request.Context(), claims.UserID))
}

// Set godoc
// @Summary Change language preference
// @Tags Preferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.LanguageRequest true "Language"
// @Success 200 {object} models.LanguageResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /me/language [put]
func (h *LanguageHandler) Set(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	var req models.LanguageRequest
	if !bindJSON(c, &req, "invalid language payload") {
		return
	}
	res, err := h.service.Set(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
