package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
)

func TestAttemptServiceCreateQuotesGradePrice(t *testing.T) {
	attempts := newFakeAttemptRepo()
	tests := newFakeTestRepo(&models.Test{ID: "test-8", Title: "Math 8", GradeLevel: 8})
	svc := NewAttemptService(attempts, tests, nil, nil)

	res, err := svc.Create(context.Background(), "user-1", models.CreateAttemptRequest{TestID: "test-8"})
	require.NoError(t, err)
	assert.Equal(t, int64(12000), res.AmountCents)
	assert.Equal(t, models.PaymentPending, res.Attempt.PaymentStatus)
	assert.Equal(t, 8, res.Attempt.GradeLevel)
	assert.Equal(t, "user-1", attempts.get(res.Attempt.ID).UserID)
}

func TestAttemptServiceCreateUnknownTest(t *testing.T) {
	svc := NewAttemptService(newFakeAttemptRepo(), newFakeTestRepo(), nil, nil)

	_, err := svc.Create(context.Background(), "user-1", models.CreateAttemptRequest{TestID: "missing"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Create(context.Background(), "user-1", models.CreateAttemptRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestLoadOwnedAttemptRejectsOtherUsers(t *testing.T) {
	repo := newFakeAttemptRepo(paidAttempt("a1", "owner"))

	_, err := loadOwnedAttempt(context.Background(), repo, "a1", "intruder")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = loadOwnedAttempt(context.Background(), repo, "nope", "owner")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
