package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/internal/proctor"
	"github.com/noah-isme/diagnostic-academy-api/internal/scoring"
	"github.com/noah-isme/diagnostic-academy-api/internal/service"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
)

type stubTokens struct{}

func (stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "student", "teacher":
		return &models.JWTClaims{UserID: token}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type stubRoles struct{}

func (stubRoles) HasAnyRole(ctx context.Context, userID string, roles ...models.UserRole) (bool, error) {
	return userID == "teacher", nil
}

// stubServices implements every service interface the handlers depend on.
type stubServices struct {
	checkoutErr error
	coupon      *models.Outcome
	questionErr error
	pdfPath     string
}

func (s *stubServices) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	return &models.LoginResponse{AccessToken: "t"}, nil
}

func (s *stubServices) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	return nil, appErrors.ErrInvalidCredentials
}

func (s *stubServices) CreateCheckout(ctx context.Context, claims *models.JWTClaims, req models.CreateCheckoutRequest) (*models.CheckoutResponse, error) {
	if s.checkoutErr != nil {
		return nil, s.checkoutErr
	}
	return &models.CheckoutResponse{URL: "https://checkout.test"}, nil
}

func (s *stubServices) VerifyPayment(ctx context.Context, userID string, req models.VerifyPaymentRequest) (*models.Outcome, error) {
	return &models.Outcome{Success: false, Message: "Payment has not been completed"}, nil
}

func (s *stubServices) Redeem(ctx context.Context, userID string, req models.RedeemCouponRequest) (*models.Outcome, error) {
	return s.coupon, nil
}

func (s *stubServices) Create(ctx context.Context, userID string, req models.CreateAttemptRequest) (*models.CreateAttemptResponse, error) {
	return &models.CreateAttemptResponse{Attempt: &models.TestAttempt{ID: "a1"}, AmountCents: 9900}, nil
}

func (s *stubServices) GetQuestions(ctx context.Context, userID string, req models.AttemptRequest) (*models.TestQuestionsResponse, error) {
	if s.questionErr != nil {
		return nil, s.questionErr
	}
	return &models.TestQuestionsResponse{AttemptID: req.AttemptID}, nil
}

func (s *stubServices) Submit(ctx context.Context, userID string, req models.SubmitTestRequest) (*models.ScoreResult, error) {
	return nil, appErrors.Clone(appErrors.ErrConflict, "answers for this test were already submitted")
}

func (s *stubServices) GradeResponse(ctx context.Context, graderID string, req models.GradeResponseRequest) (*models.ScoreResult, error) {
	return &models.ScoreResult{Success: true, Score: 100, Tier: scoring.TierGreen, CorrectCount: 1, TotalGraded: 1}, nil
}

func (s *stubServices) Recompute(ctx context.Context, attemptID string) (*models.ScoreResult, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "test attempt not found")
}

func (s *stubServices) Generate(ctx context.Context, userID string, req models.AttemptRequest) (*models.CertificateResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "test attempt has not been graded yet")
}

func (s *stubServices) Open(ctx context.Context, token string) (*os.File, string, error) {
	if token != "good" {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	f, err := os.Open(s.pdfPath)
	return f, "certificate-a1.pdf", err
}

func (s *stubServices) Translate(ctx context.Context, req models.TranslateQuestionsRequest) (*models.TranslateQuestionsResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrRateLimited, "translation rate limit exceeded, try again shortly")
}

func (s *stubServices) Send(ctx context.Context, staffID string, req models.SendInvitationRequest) (*models.Outcome, error) {
	return &models.Outcome{Success: true, Message: "Invitation sent to " + req.Email}, nil
}

func (s *stubServices) Report(ctx context.Context, userID string, req models.VisibilityReportRequest) (*proctor.State, error) {
	return &proctor.State{IsVisible: false, TabSwitchCount: 1, IsTestDisabled: true}, nil
}

func (s *stubServices) Reset(ctx context.Context, staffID string, req models.AttemptRequest) (*proctor.State, error) {
	return &proctor.State{IsVisible: true}, nil
}

func (s *stubServices) Get(ctx context.Context, userID string) *models.LanguageResponse {
	return &models.LanguageResponse{Language: "en", Name: "English"}
}

func (s *stubServices) Set(ctx context.Context, userID string, req models.LanguageRequest) (*models.LanguageResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported language")
}

func (s *stubServices) ResultsCSV(ctx context.Context, testID string) (*service.ExportResult, error) {
	return &service.ExportResult{Filename: "results.csv", Body: []byte("attempt_id\na1\n")}, nil
}

func newTestRouter(t *testing.T, svc *stubServices) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := Handlers{
		Auth:         NewAuthHandler(svc),
		Payments:     NewPaymentHandler(svc, svc),
		Tests:        NewTestHandler(svc, svc, svc),
		Grading:      NewGradingHandler(svc),
		Certificates: NewCertificateHandler(svc),
		Translation:  NewTranslationHandler(svc),
		Invitations:  NewInvitationHandler(svc),
		Proctor:      NewProctorHandler(svc),
		Language:     NewLanguageHandler(svc),
		Exports:      NewExportHandler(svc),
		System:       NewSystemHandler(service.NewMetricsService(), nil, nil),
	}
	return NewRouter(h, stubTokens{}, stubRoles{}, nil, nil, RouterConfig{})
}

func do(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCheckoutFailuresAreInternal(t *testing.T) {
	r := newTestRouter(t, &stubServices{checkoutErr: appErrors.Clone(appErrors.ErrConflict, "This test has already been paid for")})

	rec := do(r, http.MethodPost, "/functions/create-checkout", "student", map[string]string{"attemptId": "a1"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "This test has already been paid for", decode(t, rec)["error"])

	rec = do(r, http.MethodPost, "/functions/create-checkout", "", map[string]string{"attemptId": "a1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(r, http.MethodPost, "/functions/generate-certificate", "student", map[string]string{"attemptId": "a1"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBusinessRejectionsAreOK(t *testing.T) {
	r := newTestRouter(t, &stubServices{coupon: &models.Outcome{Success: false, Message: "This coupon has expired"}})

	rec := do(r, http.MethodPost, "/functions/redeem-coupon", "student", map[string]string{"code": "OLD", "attemptId": "a1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"success": false, "message": "This coupon has expired"}, decode(t, rec))

	rec = do(r, http.MethodPost, "/functions/verify-payment", "student", map[string]string{"sessionId": "cs", "attemptId": "a1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	rec = do(r, http.MethodPost, "/functions/redeem-coupon", "student", "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDomainErrorsKeepStatus(t *testing.T) {
	r := newTestRouter(t, &stubServices{questionErr: appErrors.Clone(appErrors.ErrPaymentRequired, "payment is required before taking this test")})

	rec := do(r, http.MethodPost, "/functions/get-test-questions", "student", map[string]string{"attemptId": "a1"})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "PAYMENT_REQUIRED", decode(t, rec)["code"])

	rec = do(r, http.MethodPost, "/functions/submit-test", "student", map[string]interface{}{"attemptId": "a1", "answers": []interface{}{}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(r, http.MethodPost, "/functions/translate-questions", "student", map[string]interface{}{"questions": []interface{}{}, "targetLanguage": "fr"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = do(r, http.MethodPost, "/functions/report-visibility", "student", map[string]string{"attemptId": "a1", "event": "hidden"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"isVisible": false, "tabSwitchCount": float64(1), "isTestDisabled": true}, decode(t, rec))
}

func TestStaffRoutesCheckRoleRecords(t *testing.T) {
	r := newTestRouter(t, &stubServices{})
	grade := map[string]interface{}{"responseId": "r1", "attemptId": "a1", "isCorrect": true}

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/functions/grade-manual-response", "student", grade).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/functions/grade-manual-response", "", grade).Code)

	rec := do(r, http.MethodPost, "/functions/grade-manual-response", "teacher", grade)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "green", decode(t, rec)["tier"])

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/functions/recompute-score", "teacher", map[string]string{"attemptId": "x"}).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/functions/send-invitation", "teacher", map[string]string{"email": "a@b.co", "fullName": "A"}).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/functions/reset-test-lock", "teacher", map[string]string{"attemptId": "a1"}).Code)

	rec = do(r, http.MethodGet, "/exports/results", "teacher", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "results.csv")
}

func TestCertificateDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a1.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.3 test"), 0o600))
	r := newTestRouter(t, &stubServices{pdfPath: path})

	rec := do(r, http.MethodGet, "/certificates/download?token=good", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.3 test", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/certificates/download?token=bad", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/certificates/download", "", nil).Code)
}

func TestPreflightAndSystemRoutes(t *testing.T) {
	r := newTestRouter(t, &stubServices{})

	rec := do(r, http.MethodOptions, "/functions/redeem-coupon", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/metrics", "", nil).Code)
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/attempts", "student", map[string]string{"testId": "t1"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/me/language", "student", map[string]string{"language": "xx"}).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@b.co", "password": "x"}).Code)
}
