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
)

// CertificateRepository stores certificate records.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs a CertificateRepository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// Upsert writes the certificate of an attempt, replacing an earlier issue.
func (r *CertificateRepository) Upsert(ctx context.Context, cert *models.Certificate) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.IssuedAt.IsZero() {
		cert.IssuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO certificates (id, attempt_id, user_id, file_path, issued_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (attempt_id)
        DO UPDATE SET file_path = EXCLUDED.file_path, issued_at = EXCLUDED.issued_at
        RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, cert.ID, cert.AttemptID, cert.UserID, cert.FilePath, cert.IssuedAt).Scan(&cert.ID); err != nil {
		return fmt.Errorf("upsert certificate: %w", err)
	}
	return nil
}

// FindByAttempt returns the certificate issued for an attempt.
func (r *CertificateRepository) FindByAttempt(ctx context.Context, attemptID string) (*models.Certificate, error) {
	const query = `SELECT id, attempt_id, user_id, file_path, issued_at FROM certificates WHERE attempt_id = $1`
	var cert models.Certificate
	if err := r.db.GetContext(ctx, &cert, query, attemptID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return &cert, nil
}
