package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
)

type invitationRepo interface {
	Create(ctx context.Context, inv *models.Invitation) error
}

type inviter interface {
	Invite(ctx context.Context, email, fullName string) error
}

// InvitationService lets staff invite new users by email.
type InvitationService struct {
	invitations invitationRepo
	mail        inviter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewInvitationService constructs an InvitationService.
func NewInvitationService(invitations invitationRepo, mail inviter, validate *validator.Validate, logger *zap.Logger) *InvitationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvitationService{invitations: invitations, mail: mail, validator: validate, logger: logger}
}

// Send emails the invitation and records it. The email is the point of the
// request, so a delivery failure fails the call and nothing is recorded.
func (s *InvitationService) Send(ctx context.Context, staffID string, req models.SendInvitationRequest) (*models.Outcome, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invitation payload")
	}

	if err := s.mail.Invite(ctx, req.Email, req.FullName); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send invitation email")
	}
	inv := &models.Invitation{Email: req.Email, FullName: req.FullName, InvitedBy: staffID}
	if err := s.invitations.Create(ctx, inv); err != nil {
		s.logger.Error("invitation sent but not recorded", zap.String("email", req.Email), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record invitation")
	}
	s.logger.Info("invitation sent", zap.String("invitation_id", inv.ID), zap.String("invited_by", staffID))
	return &models.Outcome{Success: true, Message: "Invitation sent to " + req.Email}, nil
}
