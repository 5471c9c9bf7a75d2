package models

import (
	"time"

	"github.com/noah-isme/diagnostic-academy-api/internal/scoring"
)

// QuestionResponse is one answer of an attempt. IsCorrect nil means ungraded.
type QuestionResponse struct {
	ID         string     `db:"id" json:"id"`
	AttemptID  string     `db:"attempt_id" json:"attemptId"`
	QuestionID string     `db:"question_id" json:"questionId"`
	Answer     string     `db:"answer" json:"answer"`
	IsCorrect  *bool      `db:"is_correct" json:"isCorrect"`
	GradedBy   *string    `db:"graded_by" json:"gradedBy,omitempty"`
	GradedAt   *time.Time `db:"graded_at" json:"gradedAt,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

// Correctness converts responses for scoring.Aggregate.
func Correctness(responses []QuestionResponse) []scoring.Correctness {
	out := make([]scoring.Correctness, len(responses))
	for i := range responses {
		out[i] = responses[i].IsCorrect
	}
	return out
}

// GradeResponseRequest grades one response by hand.
type GradeResponseRequest struct {
	ResponseID string `json:"responseId" validate:"required"`
	AttemptID  string `json:"attemptId" validate:"required"`
	IsCorrect  *bool  `json:"isCorrect" validate:"required"`
}

// AttemptRequest targets an attempt by id.
type AttemptRequest struct {
	AttemptID string `json:"attemptId" validate:"required"`
}

// SubmittedAnswer is one answer in a submission.
type SubmittedAnswer struct {
	QuestionID string `json:"questionId" validate:"required"`
	Answer     string `json:"answer" validate:"max=10000"`
}

// SubmitTestRequest finishes an attempt.
type SubmitTestRequest struct {
	AttemptID string            `json:"attemptId" validate:"required"`
	Answers   []SubmittedAnswer `json:"answers" validate:"required,min=1,dive"`
}

// ScoreResult is returned after any grading change.
type ScoreResult struct {
	Success      bool         `json:"success"`
	Score        float64      `json:"score"`
	Tier         scoring.Tier `json:"tier"`
	CorrectCount int          `json:"correctCount"`
	TotalGraded  int          `json:"totalGraded"`
	PendingCount int          `json:"pendingCount"`
}

// NewScoreResult wraps an aggregate.
func NewScoreResult(r scoring.Result) *ScoreResult {
	return &ScoreResult{
		Success:      true,
		Score:        r.Score,
		Tier:         r.Tier,
		CorrectCount: r.CorrectCount,
		TotalGraded:  r.TotalGraded,
		PendingCount: r.PendingCount,
	}
}

// TestQuestionsResponse carries sanitized questions.
type TestQuestionsResponse struct {
	AttemptID string      `json:"attemptId"`
	Test      TestSummary `json:"test"`
	Questions interface{} `json:"questions"`
}
