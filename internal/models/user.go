package models

import "time"

// UserRole is a staff role record stored in user_roles. Students carry no record.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
)

// StaffRoles may grade responses, reset locks and send invitations.
var StaffRoles = []UserRole{RoleAdmin, RoleTeacher}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"fullName"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// RoleRecord is one row of user_roles.
type RoleRecord struct {
	UserID string   `db:"user_id" json:"userId"`
	Role   UserRole `db:"role" json:"role"`
}
