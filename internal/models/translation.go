package models

import "encoding/json"

// TranslateQuestionsRequest asks for questions in another language.
type TranslateQuestionsRequest struct {
	Questions      json.RawMessage `json:"questions" validate:"required"`
	TargetLanguage string          `json:"targetLanguage" validate:"required"`
}

// TranslateQuestionsResponse carries the translated document.
type TranslateQuestionsResponse struct {
	TranslatedQuestions json.RawMessage `json:"translatedQuestions"`
}

// LanguageRequest updates the language preference.
type LanguageRequest struct {
	Language string `json:"language" validate:"required"`
}

// LanguageResponse returns the language preference.
type LanguageResponse struct {
	Language string `json:"language"`
	Name     string `json:"name"`
}

// VisibilityReportRequest reports a browser foreground change.
type VisibilityReportRequest struct {
	AttemptID string `json:"attemptId" validate:"required"`
	Event     string `json:"event" validate:"required,oneof=hidden blur visible focus"`
}
