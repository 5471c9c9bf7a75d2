package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/internal/repository"
	"github.com/noah-isme/diagnostic-academy-api/internal/scoring"
	"github.com/noah-isme/diagnostic-academy-api/pkg/payments"
)

// fakeAttemptRepo is an in-memory stand-in for AttemptRepository that keeps
// the conditional update semantics of the SQL.
type fakeAttemptRepo struct {
	mu        sync.Mutex
	attempts  map[string]*models.TestAttempt
	responses map[string][]models.QuestionResponse
	sessions  map[string]string
	locks     int
	scoreErr  error
	findErr   error
	setErr    error
	cleared   time.Time
	// beforeComplete runs inside Complete before the state checks.
	beforeComplete func(a *models.TestAttempt)
}

func newFakeAttemptRepo(attempts ...*models.TestAttempt) *fakeAttemptRepo {
	repo := &fakeAttemptRepo{
		attempts:  make(map[string]*models.TestAttempt),
		responses: make(map[string][]models.QuestionResponse),
		sessions:  make(map[string]string),
	}
	for _, a := range attempts {
		repo.attempts[a.ID] = a
	}
	return repo
}

func (f *fakeAttemptRepo) FindByID(ctx context.Context, id string) (*models.TestAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	a, ok := f.attempts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttemptRepo) Create(ctx context.Context, attempt *models.TestAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt.ID = "attempt-new"
	attempt.StartedAt = time.Now()
	f.attempts[attempt.ID] = attempt
	return nil
}

func (f *fakeAttemptRepo) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sessions[id] = sessionID
	if a, ok := f.attempts[id]; ok && !a.IsPaid() {
		started := time.Now()
		a.StripeSessionID = &sessionID
		a.CheckoutStarted = &started
	}
	return nil
}

func (f *fakeAttemptRepo) MarkPaid(ctx context.Context, id string, amountCents int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok || a.IsPaid() {
		return false, nil
	}
	a.PaymentStatus = models.PaymentCompleted
	a.AmountPaid = &amountCents
	return true, nil
}

func (f *fakeAttemptRepo) UpdateScore(ctx context.Context, id string, result scoring.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scoreErr != nil {
		return f.scoreErr
	}
	a, ok := f.attempts[id]
	if !ok {
		return sql.ErrNoRows
	}
	score, tier := result.Score, result.Tier
	a.Score = &score
	a.Tier = &tier
	a.TotalGraded = result.TotalGraded
	return nil
}

func (f *fakeAttemptRepo) UpdateLock(ctx context.Context, id string, tabSwitchCount int, disabledAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.TabSwitchCount = tabSwitchCount
	a.DisabledAt = disabledAt
	f.locks++
	return nil
}

func (f *fakeAttemptRepo) Complete(ctx context.Context, id string, responses []models.QuestionResponse, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return sql.ErrNoRows
	}
	if f.beforeComplete != nil {
		f.beforeComplete(a)
	}
	if a.CompletedAt != nil {
		return repository.ErrAttemptCompleted
	}
	if a.DisabledAt != nil {
		return repository.ErrAttemptLocked
	}
	a.CompletedAt = &completedAt
	f.responses[id] = append(f.responses[id], responses...)
	return nil
}

func (f *fakeAttemptRepo) ClearStaleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = cutoff
	var n int64
	for id, a := range f.attempts {
		if a.IsPaid() || a.StripeSessionID == nil || a.CheckoutStarted == nil || !a.CheckoutStarted.Before(cutoff) {
			continue
		}
		a.StripeSessionID = nil
		a.CheckoutStarted = nil
		delete(f.sessions, id)
		n++
	}
	return n, nil
}

func (f *fakeAttemptRepo) get(id string) *models.TestAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[id]
}

type fakeTestRepo struct {
	tests map[string]*models.Test
	calls int
}

func newFakeTestRepo(tests ...*models.Test) *fakeTestRepo {
	repo := &fakeTestRepo{tests: make(map[string]*models.Test)}
	for _, t := range tests {
		repo.tests[t.ID] = t
	}
	return repo
}

func (f *fakeTestRepo) FindByID(ctx context.Context, id string) (*models.Test, error) {
	f.calls++
	t, ok := f.tests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

type fakeUserReader struct {
	users map[string]*models.User
}

func (f *fakeUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

// fakeNotifier records notification calls.
type fakeNotifier struct {
	mu           sync.Mutex
	receipts     []int64
	results      []string
	certificates []string
	invites      []string
	inviteErr    error
}

func (f *fakeNotifier) PaymentReceipt(ctx context.Context, userID, attemptID string, amountCents int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts = append(f.receipts, amountCents)
}

func (f *fakeNotifier) ResultsReady(ctx context.Context, userID, attemptID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, attemptID)
}

func (f *fakeNotifier) CertificateIssued(ctx context.Context, userID, attemptID, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.certificates = append(f.certificates, url)
}

func (f *fakeNotifier) Invite(ctx context.Context, email, fullName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inviteErr != nil {
		return f.inviteErr
	}
	f.invites = append(f.invites, email)
	return nil
}

type fakeGateway struct {
	created []payments.CheckoutInput
	session *payments.Session
	err     error
}

func (f *fakeGateway) CreateSession(ctx context.Context, in payments.CheckoutInput) (*payments.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	return &payments.Session{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func (f *fakeGateway) GetSession(ctx context.Context, id string) (*payments.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func paidAttempt(id, userID string) *models.TestAttempt {
	return &models.TestAttempt{ID: id, UserID: userID, TestID: "test-1", GradeLevel: 4, PaymentStatus: models.PaymentCompleted}
}

func boolPtr(v bool) *bool {
	return &v
}
