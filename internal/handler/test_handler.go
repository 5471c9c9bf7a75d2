package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/pkg/response"
)

type attemptService interface {
	Create(ctx context.Context, userID string, req models.CreateAttemptRequest) (*models.CreateAttemptResponse, error)
}

type questionService interface {
	GetQuestions(ctx context.Context, userID string, req models.AttemptRequest) (*models.TestQuestionsResponse, error)
}

type submissionService interface {
	Submit(ctx context.Context, userID string, req models.SubmitTestRequest) (*models.ScoreResult, error)
}

// TestHandler serves the student side of an attempt.
type TestHandler struct {
	attempts    attemptService
	questions   questionService
	submissions submissionService
}

// NewTestHandler constructs a TestHandler.
func NewTestHandler(attempts attemptService, questions questionService, submissions submissionService) *TestHandler {
	return &TestHandler{attempts: attempts, questions: questions, submissions: submissions}
}

// CreateAttempt godoc
// @Summary Start an attempt at a test
// @Tags Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateAttemptRequest true "Test"
// @Success 201 {object} models.CreateAttemptResponse
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /attempts [post]
func (h *TestHandler) CreateAttempt(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	var req models.CreateAttemptRequest
	if !bindJSON(c, &req, "invalid attempt payload") {
		return
	}
	res, err := h.attempts.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// GetQuestions godoc
// @Summary Fetch the questions of a paid attempt without answer keys
// @Tags Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.AttemptRequest true "Attempt"
// @Success 200 {object} models.TestQuestionsResponse
// @Failure 401 {object} response.ErrorBody
// @Failure 402 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /functions/get-test-questions [post]
func (h *TestHandler) GetQuestions(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	var req models.AttemptRequest
	if !bindJSON(c, &req, "invalid questions payload") {
		return
	}
	res, err := h.questions.GetQuestions(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Submit godoc
// @Summary Submit answers and auto-grade what can be graded
// @Tags Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SubmitTestRequest true "Answers"
// @Success 200 {object} models.ScoreResult
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 402 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /functions/submit-test [post]
func (h *TestHandler) Submit(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	var req models.SubmitTestRequest
	if !bindJSON(c, &req, "invalid submission payload") {
		return
	}
	res, err := h.submissions.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
