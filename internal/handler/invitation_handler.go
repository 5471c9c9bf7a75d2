package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/pkg/response"
)

type invitationService interface {
	Send(ctx context.Context, staffID string, req models.SendInvitationRequest) (*models.Outcome, error)
}

// InvitationHandler lets staff invite people by email.
type InvitationHandler struct {
	service invitationService
}

// NewInvitationHandler constructs an InvitationHandler.
func NewInvitationHandler(svc invitationService) *InvitationHandler {
	return &InvitationHandler{service: svc}
}

// Send godoc
// @Summary Send an invitation email
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SendInvitationRequest true "Invitee"
// @Success 200 {object} response.Outcome
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /functions/send-invitation [post]
func (h *InvitationHandler) Send(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	var req models.SendInvitationRequest
	if !bindJSON(c, &req, "invalid invitation payload") {
		return
	}
	out, err := h.service.Send(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeOutcome(c, out)
}
