package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/internal/proctor"
	"github.com/noah-isme/diagnostic-academy-api/pkg/response"
)

type proctorService interface {
	Report(ctx context.Context, userID string, req models.VisibilityReportRequest) (*proctor.State, error)
	Reset(ctx context.Context, staffID string, req models.AttemptRequest) (*proctor.State, error)
}

// ProctorHandler receives visibility signals and lock resets.
type ProctorHandler struct {
	service proctorService
}

// NewProctorHandler constructs a ProctorHandler.
func NewProctorHandler(svc proctorService) *ProctorHandler {
	return &ProctorHandler{service: svc}
}

// ReportVisibility godoc
// @Summary Report that the test tab was hidden or shown
// @Description The first hidden or blur event of a paid, unsubmitted attempt locks it.
// @Tags Proctoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.VisibilityReportRequest true "Signal"
// @Success 200 {object} proctor.State
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /functions/report-visibility [post]
func (h *ProctorHandler) ReportVisibility(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	var req models.VisibilityReportRequest
	if !bindJSON(c, &req, "invalid visibility payload") {
		return
	}
	state, err := h.service.Report(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, state)
}

// ResetLock godoc
// @Summary Unlock an attempt
// @Tags Proctoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.AttemptRequest true "Attempt"
// @Success 200 {object} proctor.State
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /functions/reset-test-lock [post]
func (h *ProctorHandler) ResetLock(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	var req models.AttemptRequest
	if !bindJSON(c, &req, "invalid reset payload") {
		return
	}
	state, err := h.service.Reset(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, state)
}
