package service

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	"github.com/noah-isme/diagnostic-academy-api/pkg/jobs"
	"github.com/noah-isme/diagnostic-academy-api/pkg/mailer"
)

// Email kinds, also used as the job type and the metrics label.
const (
	EmailPaymentReceipt    = "payment_receipt"
	EmailResultsReady      = "results_ready"
	EmailCertificateIssued = "certificate_issued"
	EmailInvitation        = "invitation"
)

type notificationUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// EmailJob is the payload of a queued notification.
type EmailJob struct {
	Kind           string
	UserID         string
	AttemptID      string
	AmountCents    int64
	CertificateURL string
}

type emailView struct {
	Name           string
	TestTitle      string
	Amount         string
	Score          string
	Tier           string
	Band           string
	PendingNote    bool
	CertificateURL string
	AppName        string
}

type emailTemplate struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

func mustEmailTemplate(kind, subject, text, html string) emailTemplate {
	return emailTemplate{
		subject: texttemplate.Must(texttemplate.New(kind + "_subject").Parse(subject)),
		text:    texttemplate.Must(texttemplate.New(kind + "_text").Parse(text)),
		html:    htmltemplate.Must(htmltemplate.New(kind + "_html").Parse(html)),
	}
}

var emailTemplates = map[string]emailTemplate{
	EmailPaymentReceipt: mustEmailTemplate(EmailPaymentReceipt,
		`{{.AppName}}: your test is unlocked`,
		"Hi {{.Name}},\n\n{{.TestTitle}} is unlocked. Amount charged: {{.Amount}}.\n\nGood luck!\n",
		`<p>Hi {{.Name}},</p><p><strong>{{.TestTitle}}</strong> is unlocked. Amount charged: {{.Amount}}.</p><p>Good luck!</p>`,
	),
	EmailResultsReady: mustEmailTemplate(EmailResultsReady,
		`{{.AppName}}: results for {{.TestTitle}}`,
		"Hi {{.Name}},\n\nYour score on {{.TestTitle}} is {{.Score}}% ({{.Tier}}, {{.Band}}).\n",
		`<p>Hi {{.Name}},</p><p>Your score on <strong>{{.TestTitle}}</strong> is {{.Score}}% ({{.Tier}}, {{.Band}}).</p>`,
	),
	EmailCertificateIssued: mustEmailTemplate(EmailCertificateIssued,
		`{{.AppName}}: your certificate is ready`,
		"Hi {{.Name}},\n\nYour certificate for {{.TestTitle}} is ready: {{.CertificateURL}}\n",
		`<p>Hi {{.Name}},</p><p>Your certificate for <strong>{{.TestTitle}}</strong> is ready. <a href="{{.CertificateURL}}">Download it here</a>.</p>`,
	),
	EmailInvitation: mustEmailTemplate(EmailInvitation,
		`You're invited to {{.AppName}}`,
		"Hi {{.Name}},\n\nYou have been invited to {{.AppName}}. Sign up with this email address to get started.\n",
		`<p>Hi {{.Name}},</p><p>You have been invited to <strong>{{.AppName}}</strong>. Sign up with this email address to get started.</p>`,
	),
}

// NotificationService renders transactional emails and hands them to a job
// queue. Enqueue failures are logged and never reach the caller.
type NotificationService struct {
	queue    jobEnqueuer
	sender   mailer.Sender
	users    notificationUserReader
	attempts attemptReader
	tests    testReader
	metrics  *MetricsService
	appName  string
	logger   *zap.Logger
}

// NewNotificationService constructs a NotificationService. The queue is
// attached later with SetQueue because the queue handler is Process.
func NewNotificationService(sender mailer.Sender, users notificationUserReader, attempts attemptReader, tests testReader, metrics *MetricsService, appName string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if appName == "" {
		appName = "Diagnostic Academy"
	}
	return &NotificationService{
		sender:   sender,
		users:    users,
		attempts: attempts,
		tests:    tests,
		metrics:  metrics,
		appName:  appName,
		logger:   logger,
	}
}

// SetQueue attaches the queue used for asynchronous delivery.
func (s *NotificationService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// PaymentReceipt queues the unlock confirmation. amountCents is zero for coupon unlocks.
func (s *NotificationService) PaymentReceipt(ctx context.Context, userID, attemptID string, amountCents int64) {
	s.enqueue(EmailJob{Kind: EmailPaymentReceipt, UserID: userID, AttemptID: attemptID, AmountCents: amountCents})
}

// ResultsReady queues the results report of a fully graded attempt.
func (s *NotificationService) ResultsReady(ctx context.Context, userID, attemptID string) {
	s.enqueue(EmailJob{Kind: EmailResultsReady, UserID: userID, AttemptID: attemptID})
}

// CertificateIssued queues the certificate notice with its download link.
func (s *NotificationService) CertificateIssued(ctx context.Context, userID, attemptID, url string) {
	s.enqueue(EmailJob{Kind: EmailCertificateIssued, UserID: userID, AttemptID: attemptID, CertificateURL: url})
}

// Invite delivers an invitation right away; the caller reports its failure.
func (s *NotificationService) Invite(ctx context.Context, email, fullName string) error {
	msg, err := s.render(EmailInvitation, email, emailView{Name: fullName, AppName: s.appName})
	if err != nil {
		return err
	}
	err = s.sender.Send(ctx, msg)
	s.record(EmailInvitation, err)
	return err
}

func (s *NotificationService) enqueue(payload EmailJob) {
	if s.queue == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: payload.Kind, Payload: payload}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordEmail(payload.Kind, "dropped")
		s.logger.Warn("email not queued",
			zap.String("kind", payload.Kind),
			zap.String("attempt_id", payload.AttemptID),
			zap.Error(err),
		)
	}
}

// Process is the queue handler. It resolves recipient and attempt details at
// send time so the email reflects the latest committed state.
func (s *NotificationService) Process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(EmailJob)
	if !ok {
		return fmt.Errorf("unexpected email payload %T", job.Payload)
	}
	user, err := s.users.FindByID(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}

	view := emailView{
		Name:           user.FullName,
		Amount:         formatCents(payload.AmountCents),
		CertificateURL: payload.CertificateURL,
		AppName:        s.appName,
	}
	if payload.AttemptID != "" {
		attempt, err := s.attempts.FindByID(ctx, payload.AttemptID)
		if err != nil {
			return fmt.Errorf("load attempt: %w", err)
		}
		if test, err := s.tests.FindByID(ctx, attempt.TestID); err == nil {
			view.TestTitle = test.Title
		} else {
			view.TestTitle = "your diagnostic test"
		}
		if attempt.Score != nil {
			view.Score = fmt.Sprintf("%.2f", *attempt.Score)
		}
		if attempt.Tier != nil {
			view.Tier = attempt.Tier.Label()
			view.Band = attempt.Tier.Band()
		}
	}

	msg, err := s.render(payload.Kind, user.Email, view)
	if err != nil {
		return err
	}
	err = s.sender.Send(ctx, msg)
	s.record(payload.Kind, err)
	return err
}

func (s *NotificationService) render(kind, to string, view emailView) (mailer.Message, error) {
	tpl, ok := emailTemplates[kind]
	if !ok {
		return mailer.Message{}, fmt.Errorf("unknown email kind %q", kind)
	}
	var subject, text, html bytes.Buffer
	if err := tpl.subject.Execute(&subject, view); err != nil {
		return mailer.Message{}, fmt.Errorf("render subject: %w", err)
	}
	if err := tpl.text.Execute(&text, view); err != nil {
		return mailer.Message{}, fmt.Errorf("render text body: %w", err)
	}
	if err := tpl.html.Execute(&html, view); err != nil {
		return mailer.Message{}, fmt.Errorf("render html body: %w", err)
	}
	return mailer.Message{
		ToName:    view.Name,
		ToAddress: to,
		Subject:   strings.TrimSpace(subject.String()),
		Text:      text.String(),
		HTML:      html.String(),
	}, nil
}

func (s *NotificationService) record(kind string, err error) {
	if err != nil {
		s.metrics.RecordEmail(kind, "failed")
		s.logger.Warn("email delivery failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	s.metrics.RecordEmail(kind, "sent")
}

func formatCents(cents int64) string {
	if cents == 0 {
		return "$0.00 (coupon)"
	}
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
