package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/internal/scoring"
)

var attemptRowColumns = []string{"id", "user_id", "test_id", "grade_level", "payment_status", "amount_paid", "stripe_session_id", "checkout_started_at", "coupon_id",
	"score", "tier", "total_graded", "tab_switch_count", "disabled_at", "started_at", "completed_at"}

func TestAttemptFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	rows := sqlmock.NewRows(attemptRowColumns).
		AddRow("a1", "u1", "t1", 4, "completed", 9900, "cs_1", time.Now(), nil, 75.5, "yellow", 10, 0, nil, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM test_attempts WHERE id = $1")).WithArgs("a1").WillReturnRows(rows)

	attempt, err := repo.FindByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, attempt.IsPaid())
	require.NotNil(t, attempt.Tier)
	assert.Equal(t, scoring.TierYellow, *attempt.Tier)
	assert.Equal(t, 75.5, *attempt.Score)
	assert.Nil(t, attempt.CouponID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptCreateDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectExec("INSERT INTO test_attempts").WillReturnResult(sqlmock.NewResult(1, 1))

	attempt := &models.TestAttempt{UserID: "u1", TestID: "t1", GradeLevel: 3}
	require.NoError(t, repo.Create(context.Background(), attempt))
	assert.NotEmpty(t, attempt.ID)
	assert.Equal(t, models.PaymentPending, attempt.PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptMarkPaid(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE test_attempts SET payment_status = 'completed', amount_paid = $2")).
		WithArgs("a1", int64(12000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE test_attempts SET payment_status = 'completed', amount_paid = $2")).
		WithArgs("a1", int64(12000)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.MarkPaid(context.Background(), "a1", 12000)
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.MarkPaid(context.Background(), "a1", 12000)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptUpdateScoreWritesScoreAndTierTogether(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE test_attempts SET score = $2, tier = $3, total_graded = $4 WHERE id = $1")).
		WithArgs("a1", 100.0, "green", 12).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateScore(context.Background(), "a1", scoring.Result{Score: 100, Tier: scoring.TierGreen, TotalGraded: 12})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptUpdateScoreMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectExec("UPDATE test_attempts SET score").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateScore(context.Background(), "missing", scoring.Result{Tier: scoring.TierRed})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAttemptCompleteCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	correct := true
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE test_attempts SET completed_at = \$2\s+WHERE id = \$1 AND completed_at IS NULL AND disabled_at IS NULL`).
		WithArgs("a1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO question_responses").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO question_responses").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	responses := []models.QuestionResponse{
		{QuestionID: "q1", Answer: "4", IsCorrect: &correct},
		{QuestionID: "q2", Answer: "an essay"},
	}
	require.NoError(t, repo.Complete(context.Background(), "a1", responses, time.Now()))
	assert.Equal(t, "a1", responses[1].AttemptID)
	assert.NotEmpty(t, responses[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptCompleteTwiceRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE test_attempts SET completed_at").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT completed_at IS NULL AND disabled_at IS NOT NULL FROM test_attempts WHERE id = $1")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"locked"}).AddRow(false))
	mock.ExpectRollback()

	err := repo.Complete(context.Background(), "a1", []models.QuestionResponse{{QuestionID: "q1"}}, time.Now())
	assert.ErrorIs(t, err, ErrAttemptCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptCompleteLockedRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE test_attempts SET completed_at").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT completed_at IS NULL AND disabled_at IS NOT NULL")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"locked"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.Complete(context.Background(), "a1", []models.QuestionResponse{{QuestionID: "q1"}}, time.Now())
	assert.ErrorIs(t, err, ErrAttemptLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptCompleteInsertFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE test_attempts SET completed_at").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO question_responses").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Complete(context.Background(), "a1", []models.QuestionResponse{{QuestionID: "q1"}}, time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptSetCheckoutSessionStampsTime(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE test_attempts SET stripe_session_id = $2, checkout_started_at = now()")).
		WithArgs("a1", "cs_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetCheckoutSession(context.Background(), "a1", "cs_1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptClearStaleSessions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	cutoff := time.Now().Add(-24 * time.Hour)
	mock.ExpectExec(`UPDATE test_attempts SET stripe_session_id = NULL, checkout_started_at = NULL\s+WHERE payment_status = 'pending' AND stripe_session_id IS NOT NULL AND checkout_started_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ClearStaleSessions(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptListResultsFiltersByTest(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	rows := sqlmock.NewRows([]string{"attempt_id", "student_name", "student_email", "test_title", "grade_level", "payment_status", "score", "tier", "total_graded", "completed_at"}).
		AddRow("a1", "Ana", "ana@example.com", "Grade 3 Math", 3, "completed", 90.0, "green", 20, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("AND a.test_id = $1 ORDER BY a.completed_at DESC")).
		WithArgs("t1").
		WillReturnRows(rows)

	results, err := repo.ListResults(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Ana", results[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptUpdateLock(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttemptRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE test_attempts SET tab_switch_count = $2, disabled_at = $3 WHERE id = $1")).
		WithArgs("a1", 0, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLock(context.Background(), "a1", 0, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
