package models

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Subject of a diagnostic test.
type Subject string

const (
	SubjectMath Subject = "math"
	SubjectELA  Subject = "ela"
)

// Test is a grade-level diagnostic. Questions hold either a flat array or a
// {"sections":[...]} document, answer keys included.
type Test struct {
	ID         string         `db:"id" json:"id"`
	Title      string         `db:"title" json:"title"`
	Subject    Subject        `db:"subject" json:"subject"`
	GradeLevel int            `db:"grade_level" json:"gradeLevel"`
	Questions  types.JSONText `db:"questions" json:"-"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}

// TestSummary is the public test metadata returned with questions.
type TestSummary struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Subject    Subject `json:"subject"`
	GradeLevel int     `json:"gradeLevel"`
}

// Summary strips the question document.
func (t *Test) Summary() TestSummary {
	return TestSummary{ID: t.ID, Title: t.Title, Subject: t.Subject, GradeLevel: t.GradeLevel}
}

// GradeLabel renders a grade level for documents, 0 being kindergarten.
func GradeLabel(level int) string {
	if level <= 0 {
		return "Kindergarten"
	}
	return fmt.Sprintf("Grade %d", level)
}
