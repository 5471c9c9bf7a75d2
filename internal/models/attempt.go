package models

import (
	"time"

	"github.com/noah-isme/diagnostic-academy-api/internal/proctor"
	"github.com/noah-isme/diagnostic-academy-api/internal/scoring"
)

// PaymentStatus of an attempt.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// TestAttempt is one student's run at one test. Attempts are never deleted.
type TestAttempt struct {
	ID              string        `db:"id" json:"id"`
	UserID          string        `db:"user_id" json:"userId"`
	TestID          string        `db:"test_id" json:"testId"`
	GradeLevel      int           `db:"grade_level" json:"gradeLevel"`
	PaymentStatus   PaymentStatus `db:"payment_status" json:"paymentStatus"`
	AmountPaid      *int64        `db:"amount_paid" json:"amountPaid,omitempty"`
	StripeSessionID *string       `db:"stripe_session_id" json:"-"`
	CheckoutStarted *time.Time    `db:"checkout_started_at" json:"-"`
	CouponID        *string       `db:"coupon_id" json:"couponId,omitempty"`
	Score           *float64      `db:"score" json:"score"`
	Tier            *scoring.Tier `db:"tier" json:"tier"`
	TotalGraded     int           `db:"total_graded" json:"totalGraded"`
	TabSwitchCount  int           `db:"tab_switch_count" json:"tabSwitchCount"`
	DisabledAt      *time.Time    `db:"disabled_at" json:"disabledAt,omitempty"`
	StartedAt       time.Time     `db:"started_at" json:"startedAt"`
	CompletedAt     *time.Time    `db:"completed_at" json:"completedAt,omitempty"`
}

// IsPaid reports whether the attempt is unlocked.
func (a *TestAttempt) IsPaid() bool {
	return a.PaymentStatus == PaymentCompleted
}

// IsGraded reports whether score and tier are present.
func (a *TestAttempt) IsGraded() bool {
	return a.Score != nil && a.Tier != nil
}

// IsCompleted reports whether answers were submitted.
func (a *TestAttempt) IsCompleted() bool {
	return a.CompletedAt != nil
}

// Monitor rebuilds the visibility monitor from the persisted lock columns. It
// observes only while the attempt is paid and still in progress.
func (a *TestAttempt) Monitor() *proctor.Monitor {
	state := proctor.State{
		IsVisible:      a.DisabledAt == nil,
		TabSwitchCount: a.TabSwitchCount,
		IsTestDisabled: a.DisabledAt != nil,
	}
	return proctor.Restore(a.IsPaid() && !a.IsCompleted(), state)
}

// CreateAttemptRequest starts an attempt at a test.
type CreateAttemptRequest struct {
	TestID string `json:"testId" validate:"required"`
}

// CreateAttemptResponse returns the new attempt together with its price.
type CreateAttemptResponse struct {
	Attempt     *TestAttempt `json:"attempt"`
	AmountCents int64        `json:"amountCents"`
}

// AttemptResultRow is one line of the results export.
type AttemptResultRow struct {
	AttemptID     string        `db:"attempt_id"`
	StudentName   string        `db:"student_name"`
	StudentEmail  string        `db:"student_email"`
	TestTitle     string        `db:"test_title"`
	GradeLevel    int           `db:"grade_level"`
	PaymentStatus PaymentStatus `db:"payment_status"`
	Score         *float64      `db:"score"`
	Tier          *scoring.Tier `db:"tier"`
	TotalGraded   int           `db:"total_graded"`
	CompletedAt   *time.Time    `db:"completed_at"`
}
