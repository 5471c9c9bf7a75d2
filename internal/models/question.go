package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// open-ended question types always wait for a human grader.
var manualQuestionTypes = map[string]struct{}{
	"short_answer":         {},
	"open_response":        {},
	"constructed_response": {},
	"essay":                {},
	"written":              {},
}

// Question is the grading view of one stored question.
type Question struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	CorrectAnswer json.RawMessage  `json:"correctAnswer"`
	SnakeAnswer   json.RawMessage  `json:"correct_answer"`
	Options       []QuestionOption `json:"options"`
}

// QuestionOption is one choice of a multiple choice question.
type QuestionOption struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Value     string `json:"value"`
	IsCorrect bool   `json:"isCorrect"`
}

// UnmarshalJSON accepts options given as plain strings as well as objects.
func (o *QuestionOption) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		o.Label = label
		return nil
	}
	type alias QuestionOption
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*o = QuestionOption(a)
	return nil
}

type questionSections struct {
	Sections []struct {
		Title     string     `json:"title"`
		Questions []Question `json:"questions"`
	} `json:"sections"`
}

// ParseQuestions flattens a flat or sectioned question document.
func ParseQuestions(raw []byte) ([]Question, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var flat []Question
		if err := json.Unmarshal(raw, &flat); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
		return flat, nil
	}
	var doc questionSections
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode question sections: %w", err)
	}
	var out []Question
	for _, section := range doc.Sections {
		out = append(out, section.Questions...)
	}
	return out, nil
}

// AcceptedAnswers returns the answers accepted for automatic grading, or nil
// when the question needs a human grader.
func (q *Question) AcceptedAnswers() []string {
	if _, manual := manualQuestionTypes[strings.ToLower(q.Type)]; manual {
		return nil
	}
	key := q.CorrectAnswer
	if len(key) == 0 {
		key = q.SnakeAnswer
	}
	var accepted []string
	if len(key) > 0 {
		var single interface{}
		if err := json.Unmarshal(key, &single); err == nil {
			accepted = appendAnswers(accepted, single)
		}
	}
	for _, opt := range q.Options {
		if !opt.IsCorrect {
			continue
		}
		for _, v := range []string{opt.ID, opt.Value, opt.Label} {
			if v != "" {
				accepted = append(accepted, v)
			}
		}
	}
	return accepted
}

func appendAnswers(dst []string, v interface{}) []string {
	switch t := v.(type) {
	case string:
		return append(dst, t)
	case float64:
		return append(dst, strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%f", t), "0"), "."))
	case bool:
		return append(dst, fmt.Sprintf("%t", t))
	case []interface{}:
		for _, item := range t {
			dst = appendAnswers(dst, item)
		}
	}
	return dst
}

// Grade checks an answer against the key. The second value is false when the
// question cannot be graded automatically.
func (q *Question) Grade(answer string) (bool, bool) {
	accepted := q.AcceptedAnswers()
	if len(accepted) == 0 {
		return false, false
	}
	given := normalizeAnswer(answer)
	for _, a := range accepted {
		if normalizeAnswer(a) == given {
			return true, true
		}
	}
	return false, true
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
