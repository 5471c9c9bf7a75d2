package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
)

func TestCertificateUpsertKeepsExistingID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCertificateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (attempt_id)")).
		WithArgs(sqlmock.AnyArg(), "a1", "u1", "certificates/a1.pdf", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing"))

	cert := &models.Certificate{AttemptID: "a1", UserID: "u1", FilePath: "certificates/a1.pdf"}
	require.NoError(t, repo.Upsert(context.Background(), cert))
	assert.Equal(t, "existing", cert.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateFindByAttempt(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCertificateRepository(db)

	rows := sqlmock.NewRows([]string{"id", "attempt_id", "user_id", "file_path", "issued_at"}).
		AddRow("c1", "a1", "u1", "certificates/a1.pdf", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM certificates WHERE attempt_id = $1")).WithArgs("a1").WillReturnRows(rows)

	cert, err := repo.FindByAttempt(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "certificates/a1.pdf", cert.FilePath)
	assert.NoError(t, mock.ExpectationsWereMet())
}
