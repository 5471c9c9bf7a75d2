package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestionsFlatAndSectioned(t *testing.T) {
	flat, err := ParseQuestions([]byte(`[{"id":"q1","correctAnswer":"4"},{"id":"q2","type":"essay"}]`))
	require.NoError(t, err)
	require.Len(t, flat, 2)

	sectioned, err := ParseQuestions([]byte(`{"sections":[
		{"title":"A","questions":[{"id":"a1","correct_answer":12}]},
		{"title":"B","questions":[{"id":"b1","options":[{"id":"x","label":"Cat"},{"id":"y","label":"Dog","isCorrect":true}]}]}
	]}`))
	require.NoError(t, err)
	require.Len(t, sectioned, 2)
	assert.Equal(t, "b1", sectioned[1].ID)
}

func TestQuestionGrade(t *testing.T) {
	qs, err := ParseQuestions([]byte(`[
		{"id":"q1","correctAnswer":" Four "},
		{"id":"q2","correct_answer":12.5},
		{"id":"q3","options":["red","blue"],"correctAnswer":["blue","navy"]},
		{"id":"q4","options":[{"id":"x","label":"Cat"},{"id":"y","label":"Dog","isCorrect":true}]},
		{"id":"q5","type":"short_answer","correctAnswer":"anything"},
		{"id":"q6","prompt":"no key"}
	]`))
	require.NoError(t, err)

	correct, gradable := qs[0].Grade("four")
	assert.True(t, gradable)
	assert.True(t, correct)

	correct, _ = qs[1].Grade("12.5")
	assert.True(t, correct)

	correct, _ = qs[2].Grade("Navy")
	assert.True(t, correct)

	correct, _ = qs[3].Grade("y")
	assert.True(t, correct)
	correct, gradable = qs[3].Grade("Cat")
	assert.True(t, gradable)
	assert.False(t, correct)

	_, gradable = qs[4].Grade("anything")
	assert.False(t, gradable)
	_, gradable = qs[5].Grade("x")
	assert.False(t, gradable)
}

func TestAttemptMonitorFromColumns(t *testing.T) {
	a := &TestAttempt{PaymentStatus: PaymentCompleted, TabSwitchCount: 1}
	m := a.Monitor()
	assert.True(t, m.Enabled())
	assert.False(t, m.State().IsTestDisabled)

	a.PaymentStatus = PaymentPending
	assert.False(t, a.Monitor().Enabled())
}

func TestGradeLabel(t *testing.T) {
	assert.Equal(t, "Kindergarten", GradeLabel(0))
	assert.Equal(t, "Grade 7", GradeLabel(7))
}
