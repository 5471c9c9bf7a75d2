package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/pkg/response"
)

type gradingService interface {
	GradeResponse(ctx context.Context, graderID string, req models.GradeResponseRequest) (*models.ScoreResult, error)
	Recompute(ctx context.Context, attemptID string) (*models.ScoreResult, error)
}

// GradingHandler exposes manual grading to staff.
type GradingHandler struct {
	service gradingService
}

// NewGradingHandler constructs a GradingHandler.
func NewGradingHandler(svc gradingService) *GradingHandler {
	return &GradingHandler{service: svc}
}

// GradeResponse godoc
// @Summary Grade one response by hand
// @Tags Grading
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.GradeResponseRequest true "Grade"
// @Success 200 {object} models.ScoreResult
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /functions/grade-manual-response [post]
func (h *GradingHandler) GradeResponse(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	var req models.GradeResponseRequest
	if !bindJSON(c, &req, "invalid grading payload") {
		return
	}
	res, err := h.service.GradeResponse(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// RecomputeScore godoc
// @Summary Recompute the score of an attempt from its responses
// @Tags Grading
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.AttemptRequest true "Attempt"
// @Success 200 {object} models.ScoreResult
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /functions/recompute-score [post]
func (h *GradingHandler) RecomputeScore(c *gin.Context) {
	var req models.AttemptRequest
	if !bindJSON(c, &req, "invalid recompute payload") {
		return
	}
	res, err := h.service.Recompute(c.Request.Context(), req.AttemptID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
