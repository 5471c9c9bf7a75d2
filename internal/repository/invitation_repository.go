package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
)

// InvitationRepository records sent invitations.
type InvitationRepository struct {
	db *sqlx.DB
}

// NewInvitationRepository constructs an InvitationRepository.
func NewInvitationRepository(db *sqlx.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Create inserts an invitation.
func (r *InvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO invitations (id, email, full_name, invited_by, created_at)
        VALUES (:id, :email, :full_name, :invited_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}
