package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/pkg/database"
)

// redemptionUniqueConstraint guards one redemption per (coupon, user).
const redemptionUniqueConstraint = "coupon_redemptions_coupon_id_user_id_key"

var (
	// ErrCouponAlreadyRedeemed is returned when the user already holds a redemption of the coupon.
	ErrCouponAlreadyRedeemed = errors.New("coupon already redeemed by user")
	// ErrCouponExhausted is returned when the conditional usage increment matched no row.
	ErrCouponExhausted = errors.New("coupon usage limit reached")
	// ErrCouponExpired is returned when the coupon expired before the usage increment.
	ErrCouponExpired = errors.New("coupon expired")
	// ErrAttemptUnavailable is returned when the attempt is missing, foreign or already paid.
	ErrAttemptUnavailable = errors.New("attempt not redeemable")
)

// CouponRepository reads coupons and records redemptions.
type CouponRepository struct {
	db *sqlx.DB
}

// NewCouponRepository constructs a CouponRepository.
func NewCouponRepository(db *sqlx.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// FindByCode returns a coupon by its case-insensitive code.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	const query = `SELECT id, code, is_active, max_uses, current_uses, expires_at FROM coupons WHERE UPPER(code) = $1 LIMIT 1`
	var coupon models.Coupon
	if err := r.db.GetContext(ctx, &coupon, query, strings.ToUpper(strings.TrimSpace(code))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return &coupon, nil
}

// HasRedemption reports whether the user already redeemed the coupon.
func (r *CouponRepository) HasRedemption(ctx context.Context, couponID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, couponID, userID); err != nil {
		return false, fmt.Errorf("check coupon redemption: %w", err)
	}
	return exists, nil
}

// Redeem records the redemption, consumes one use and unlocks the attempt in a
// single transaction. Nothing is written unless all three statements succeed.
func (r *CouponRepository) Redeem(ctx context.Context, redemption *models.CouponRedemption) error {
	if redemption.ID == "" {
		redemption.ID = uuid.NewString()
	}
	if redemption.RedeemedAt.IsZero() {
		redemption.RedeemedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin redeem coupon: %w", err)
	}

	const insertQuery = `INSERT INTO coupon_redemptions (id, coupon_id, user_id, attempt_id, redeemed_at)
        VALUES (:id, :coupon_id, :user_id, :attempt_id, :redeemed_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, redemption); err != nil {
		tx.Rollback() //nolint:errcheck
		if database.IsUniqueViolation(err, redemptionUniqueConstraint) {
			return ErrCouponAlreadyRedeemed
		}
		return fmt.Errorf("insert coupon redemption: %w", err)
	}

	const useQuery = `UPDATE coupons SET current_uses = current_uses + 1
        WHERE id = $1 AND is_active AND current_uses < max_uses AND (expires_at IS NULL OR expires_at > now())`
	if err := execOne(ctx, tx, useQuery, ErrCouponExhausted, redemption.CouponID); err != nil {
		if errors.Is(err, ErrCouponExhausted) {
			err = couponRejection(ctx, tx, redemption.CouponID)
		}
		tx.Rollback() //nolint:errcheck
		return err
	}

	const unlockQuery = `UPDATE test_attempts SET payment_status = 'completed', amount_paid = 0, coupon_id = $3
        WHERE id = $1 AND user_id = $2 AND payment_status <> 'completed'`
	if err := execOne(ctx, tx, unlockQuery, ErrAttemptUnavailable, redemption.AttemptID, redemption.UserID, redemption.CouponID); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit redeem coupon: %w", err)
	}
	return nil
}

// couponRejection tells an expired coupon apart from an exhausted or inactive one.
func couponRejection(ctx context.Context, tx *sqlx.Tx, couponID string) error {
	const query = `SELECT expires_at IS NOT NULL AND expires_at <= now() FROM coupons WHERE id = $1`
	var expired bool
	if err := tx.GetContext(ctx, &expired, query, couponID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCouponExhausted
		}
		return fmt.Errorf("read coupon state: %w", err)
	}
	if expired {
		return ErrCouponExpired
	}
	return ErrCouponExhausted
}

// execOne runs a statement that must touch exactly one row, returning noRows otherwise.
func execOne(ctx context.Context, tx *sqlx.Tx, query string, noRows error, args ...interface{}) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("redeem coupon rows affected: %w", err)
	}
	if affected == 0 {
		return noRows
	}
	return nil
}
