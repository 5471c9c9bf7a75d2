package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
)

func report(svc *ProctorService, userID, attemptID, event string) (bool, int, bool, error) {
	state, err := svc.Report(context.Background(), userID, models.VisibilityReportRequest{AttemptID: attemptID, Event: event})
	if err != nil {
		return false, 0, false, err
	}
	return state.IsVisible, state.TabSwitchCount, state.IsTestDisabled, nil
}

func TestReportVisibilityLocksOnce(t *testing.T) {
	attempts := newFakeAttemptRepo(paidAttempt("a1", "u1"))
	svc := NewProctorService(attempts, nil, nil, nil)

	visible, count, disabled, err := report(svc, "u1", "a1", "hidden")
	require.NoError(t, err)
	assert.False(t, visible)
	assert.Equal(t, 1, count)
	assert.True(t, disabled)
	require.NotNil(t, attempts.get("a1").DisabledAt)

	_, count, disabled, err = report(svc, "u1", "a1", "blur")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, disabled)

	visible, _, disabled, err = report(svc, "u1", "a1", "visible")
	require.NoError(t, err)
	assert.True(t, visible)
	assert.True(t, disabled)
	assert.Equal(t, 1, attempts.locks)
}

func TestReportVisibilityIgnoredWhenNotMonitoring(t *testing.T) {
	attempts := newFakeAttemptRepo(pendingAttempt("unpaid", "u1", 3), submittedAttempt("done", "u1"))
	svc := NewProctorService(attempts, nil, nil, nil)

	for _, id := range []string{"unpaid", "done"} {
		_, count, disabled, err := report(svc, "u1", id, "hidden")
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.False(t, disabled)
	}
	assert.Zero(t, attempts.locks)

	_, _, _, err := report(svc, "u2", "done", "hidden")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, _, _, err = report(svc, "u1", "done", "minimized")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestResetLockRearmsAttempt(t *testing.T) {
	attempts := newFakeAttemptRepo(paidAttempt("a1", "u1"))
	svc := NewProctorService(attempts, nil, nil, nil)
	_, _, _, err := report(svc, "u1", "a1", "hidden")
	require.NoError(t, err)

	state, err := svc.Reset(context.Background(), "teacher-1", models.AttemptRequest{AttemptID: "a1"})
	require.NoError(t, err)
	assert.False(t, state.IsTestDisabled)
	assert.True(t, state.IsVisible)
	assert.Nil(t, attempts.get("a1").DisabledAt)

	_, count, disabled, err := report(svc, "u1", "a1", "blur")
	require.NoError(t, err)
	assert.True(t, disabled)
	assert.Equal(t, 1, count)

	_, err = svc.Reset(context.Background(), "teacher-1", models.AttemptRequest{AttemptID: "ghost"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
