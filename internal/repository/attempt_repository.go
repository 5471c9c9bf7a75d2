package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/internal/scoring"
)

var (
	// ErrAttemptCompleted is returned when answers were already submitted.
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrAttemptLocked is returned when the visibility lock closed the attempt.
	ErrAttemptLocked = errors.New("attempt locked")
)

// AttemptRepository persists test attempts and their submitted responses.
type AttemptRepository struct {
	db *sqlx.DB
}

// NewAttemptRepository constructs an AttemptRepository.
func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

const attemptColumns = `id, user_id, test_id, grade_level, payment_status, amount_paid, stripe_session_id, checkout_started_at, coupon_id,
        score, tier, total_graded, tab_switch_count, disabled_at, started_at, completed_at`

// Create inserts a new pending attempt.
func (r *AttemptRepository) Create(ctx context.Context, attempt *models.TestAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = time.Now().UTC()
	}
	if attempt.PaymentStatus == "" {
		attempt.PaymentStatus = models.PaymentPending
	}
	const query = `INSERT INTO test_attempts (id, user_id, test_id, grade_level, payment_status, total_graded, tab_switch_count, started_at)
        VALUES (:id, :user_id, :test_id, :grade_level, :payment_status, :total_graded, :tab_switch_count, :started_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attempt); err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

// FindByID returns an attempt.
func (r *AttemptRepository) FindByID(ctx context.Context, id string) (*models.TestAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM test_attempts WHERE id = $1`
	var attempt models.TestAttempt
	if err := r.db.GetContext(ctx, &attempt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attempt: %w", err)
	}
	return &attempt, nil
}

// SetCheckoutSession records the payment session opened for an attempt and
// when it was opened. A newer session replaces the previous one.
func (r *AttemptRepository) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	const query = `UPDATE test_attempts SET stripe_session_id = $2, checkout_started_at = now()
        WHERE id = $1 AND payment_status <> 'completed'`
	if _, err := r.db.ExecContext(ctx, query, id, sessionID); err != nil {
		return fmt.Errorf("set checkout session: %w", err)
	}
	return nil
}

// MarkPaid unlocks an attempt. It reports false when the attempt was already paid.
func (r *AttemptRepository) MarkPaid(ctx context.Context, id string, amountCents int64) (bool, error) {
	const query = `UPDATE test_attempts SET payment_status = 'completed', amount_paid = $2
        WHERE id = $1 AND payment_status <> 'completed'`
	res, err := r.db.ExecContext(ctx, query, id, amountCents)
	if err != nil {
		return false, fmt.Errorf("mark attempt paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark attempt paid rows affected: %w", err)
	}
	return affected > 0, nil
}

// UpdateScore writes score, tier and graded count in one statement.
func (r *AttemptRepository) UpdateScore(ctx context.Context, id string, result scoring.Result) error {
	const query = `UPDATE test_attempts SET score = $2, tier = $3, total_graded = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, result.Score, result.Tier, result.TotalGraded)
	if err != nil {
		return fmt.Errorf("update attempt score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update attempt score rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateLock persists the visibility lock. A nil disabledAt clears the lock.
func (r *AttemptRepository) UpdateLock(ctx context.Context, id string, tabSwitchCount int, disabledAt *time.Time) error {
	const query = `UPDATE test_attempts SET tab_switch_count = $2, disabled_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, tabSwitchCount, disabledAt); err != nil {
		return fmt.Errorf("update attempt lock: %w", err)
	}
	return nil
}

// Complete stores the submitted responses and closes the attempt in one
// transaction. A locked attempt yields ErrAttemptLocked.
func (r *AttemptRepository) Complete(ctx context.Context, id string, responses []models.QuestionResponse, completedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submit attempt: %w", err)
	}

	const closeQuery = `UPDATE test_attempts SET completed_at = $2
        WHERE id = $1 AND completed_at IS NULL AND disabled_at IS NULL`
	res, err := tx.ExecContext(ctx, closeQuery, id, completedAt)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("close attempt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("close attempt rows affected: %w", err)
	}
	if affected == 0 {
		var locked bool
		const lockQuery = `SELECT completed_at IS NULL AND disabled_at IS NOT NULL FROM test_attempts WHERE id = $1`
		err := tx.GetContext(ctx, &locked, lockQuery, id)
		tx.Rollback() //nolint:errcheck
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("read attempt state: %w", err)
		}
		if locked {
			return ErrAttemptLocked
		}
		return ErrAttemptCompleted
	}

	const insertQuery = `INSERT INTO question_responses (id, attempt_id, question_id, answer, is_correct, created_at)
        VALUES (:id, :attempt_id, :question_id, :answer, :is_correct, :created_at)`
	for i := range responses {
		if responses[i].ID == "" {
			responses[i].ID = uuid.NewString()
		}
		responses[i].AttemptID = id
		if responses[i].CreatedAt.IsZero() {
			responses[i].CreatedAt = completedAt
		}
		if _, err := tx.NamedExecContext(ctx, insertQuery, responses[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert response: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submit attempt: %w", err)
	}
	return nil
}

// ClearStaleSessions forgets checkout sessions opened before cutoff on attempts
// that are still unpaid. A cleared session can no longer verify.
func (r *AttemptRepository) ClearStaleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `UPDATE test_attempts SET stripe_session_id = NULL, checkout_started_at = NULL
        WHERE payment_status = 'pending' AND stripe_session_id IS NOT NULL AND checkout_started_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("clear stale sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear stale sessions rows affected: %w", err)
	}
	return affected, nil
}

// ListResults returns completed attempts for the results export, optionally for one test.
func (r *AttemptRepository) ListResults(ctx context.Context, testID string) ([]models.AttemptResultRow, error) {
	query := `SELECT a.id AS attempt_id, u.full_name AS student_name, u.email AS student_email, t.title AS test_title,
        a.grade_level, a.payment_status, a.score, a.tier, a.total_graded, a.completed_at
        FROM test_attempts a
        JOIN users u ON u.id = a.user_id
        JOIN tests t ON t.id = a.test_id
        WHERE a.completed_at IS NOT NULL`
	var args []interface{}
	if testID != "" {
		query += ` AND a.test_id = $1`
		args = append(args, testID)
	}
	query += ` ORDER BY a.completed_at DESC`

	var rows []models.AttemptResultRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attempt results: %w", err)
	}
	return rows, nil
}
