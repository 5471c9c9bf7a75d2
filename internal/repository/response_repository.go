package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
)

// ResponseRepository persists question responses.
type ResponseRepository struct {
	db *sqlx.DB
}

// NewResponseRepository constructs a ResponseRepository.
func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

const responseColumns = `id, attempt_id, question_id, answer, is_correct, graded_by, graded_at, created_at`

// ListByAttempt returns every response of an attempt.
func (r *ResponseRepository) ListByAttempt(ctx context.Context, attemptID string) ([]models.QuestionResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM question_responses WHERE attempt_id = $1 ORDER BY created_at, id`
	var responses []models.QuestionResponse
	if err := r.db.SelectContext(ctx, &responses, query, attemptID); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return responses, nil
}

// Grade sets the correctness of one response belonging to the attempt.
func (r *ResponseRepository) Grade(ctx context.Context, id, attemptID string, isCorrect bool, gradedBy string, gradedAt time.Time) error {
	const query = `UPDATE question_responses SET is_correct = $3, graded_by = $4, graded_at = $5
        WHERE id = $1 AND attempt_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, attemptID, isCorrect, gradedBy, gradedAt)
	if err != nil {
		return fmt.Errorf("grade response: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("grade response rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
