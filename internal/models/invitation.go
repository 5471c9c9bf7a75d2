package models

import "time"

// Invitation is an email invite sent by staff.
type Invitation struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"fullName"`
	InvitedBy string    `db:"invited_by" json:"invitedBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// SendInvitationRequest invites someone to the academy.
type SendInvitationRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required,max=120"`
}
