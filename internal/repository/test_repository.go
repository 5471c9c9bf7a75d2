package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
)

// TestRepository reads diagnostic tests.
type TestRepository struct {
	db *sqlx.DB
}

// NewTestRepository constructs a TestRepository.
func NewTestRepository(db *sqlx.DB) *TestRepository {
	return &TestRepository{db: db}
}

// FindByID returns a test including its question document.
func (r *TestRepository) FindByID(ctx context.Context, id string) (*models.Test, error) {
	const query = `SELECT id, title, subject, grade_level, questions, created_at FROM tests WHERE id = $1`
	var test models.Test
	if err := r.db.GetContext(ctx, &test, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find test: %w", err)
	}
	return &test, nil
}
