package models

import "time"

// Coupon is a discount code. CurrentUses never exceeds MaxUses.
type Coupon struct {
	ID          string     `db:"id" json:"id"`
	Code        string     `db:"code" json:"code"`
	IsActive    bool       `db:"is_active" json:"isActive"`
	MaxUses     int        `db:"max_uses" json:"maxUses"`
	CurrentUses int        `db:"current_uses" json:"currentUses"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
}

// Exhausted reports whether the usage ceiling was reached.
func (c *Coupon) Exhausted() bool {
	return c.CurrentUses >= c.MaxUses
}

// ExpiredAt reports whether the coupon is past its expiry at now.
func (c *Coupon) ExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// CouponRedemption records a user consuming a coupon. (coupon_id, user_id) is unique.
type CouponRedemption struct {
	ID         string    `db:"id" json:"id"`
	CouponID   string    `db:"coupon_id" json:"couponId"`
	UserID     string    `db:"user_id" json:"userId"`
	AttemptID  string    `db:"attempt_id" json:"attemptId"`
	RedeemedAt time.Time `db:"redeemed_at" json:"redeemedAt"`
}

// RedeemCouponRequest applies a code to an attempt.
type RedeemCouponRequest struct {
	Code      string `json:"code" validate:"required,max=64"`
	AttemptID string `json:"attemptId" validate:"required"`
}
