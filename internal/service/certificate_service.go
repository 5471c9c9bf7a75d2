package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
	"github.com/noah-isme/diagnostic-academy-api/pkg/export"
	"github.com/noah-isme/diagnostic-academy-api/pkg/storage"
)

type certificateRepo interface {
	Upsert(ctx context.Context, cert *models.Certificate) error
	FindByAttempt(ctx context.Context, attemptID string) (*models.Certificate, error)
}

type certificateRenderer interface {
	Render(data export.CertificateData) ([]byte, error)
}

type fileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	Exists(filename string) bool
}

type downloadSigner interface {
	Sign(grant storage.DownloadGrant) (string, storage.DownloadGrant, error)
	Verify(token string) (storage.DownloadGrant, error)
}

type certificateNotifier interface {
	CertificateIssued(ctx context.Context, userID, attemptID, url string)
}

// CertificateService renders, stores and links attempt certificates.
type CertificateService struct {
	certificates certificateRepo
	attempts     attemptReader
	tests        testReader
	users        notificationUserReader
	renderer     certificateRenderer
	storage      fileStore
	signer       downloadSigner
	notifier     certificateNotifier
	metrics      *MetricsService
	downloadURL  string
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// CertificateDeps groups the collaborators of CertificateService.
type CertificateDeps struct {
	Certificates certificateRepo
	Attempts     attemptReader
	Tests        testReader
	Users        notificationUserReader
	Renderer     certificateRenderer
	Storage      fileStore
	Signer       downloadSigner
	Notifier     certificateNotifier
	Metrics      *MetricsService
	// DownloadURL is the absolute URL of the download route; the token is appended as a query parameter.
	DownloadURL string
}

// NewCertificateService constructs a CertificateService.
func NewCertificateService(deps CertificateDeps, validate *validator.Validate, logger *zap.Logger) *CertificateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		certificates: deps.Certificates,
		attempts:     deps.Attempts,
		tests:        deps.Tests,
		users:        deps.Users,
		renderer:     deps.Renderer,
		storage:      deps.Storage,
		signer:       deps.Signer,
		notifier:     deps.Notifier,
		metrics:      deps.Metrics,
		downloadURL:  deps.DownloadURL,
		validator:    validate,
		logger:       logger,
		now:          time.Now,
	}
}

func certificatePath(attemptID string) string {
	return "certificates/" + attemptID + ".pdf"
}

// Generate issues the certificate of a graded attempt and returns a signed link.
// An attempt already holding a stored certificate gets a fresh link to the same file.
func (s *CertificateService) Generate(ctx context.Context, userID string, req models.AttemptRequest) (*models.CertificateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate payload")
	}
	attempt, err := loadOwnedAttempt(ctx, s.attempts, req.AttemptID, userID)
	if err != nil {
		return nil, err
	}
	if !attempt.IsGraded() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "test attempt has not been graded yet")
	}

	existing, err := s.certificates.FindByAttempt(ctx, attempt.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	if existing != nil && s.storage.Exists(existing.FilePath) {
		link, err := s.link(attempt, existing.FilePath)
		if err != nil {
			return nil, err
		}
		return &models.CertificateResponse{Success: true, CertificateURL: link}, nil
	}

	cert, err := s.issue(ctx, attempt)
	if err != nil {
		return nil, err
	}
	link, err := s.link(attempt, cert.FilePath)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCertificateIssued()
	s.logger.Info("certificate issued", zap.String("attempt_id", attempt.ID), zap.String("certificate_id", cert.ID))
	s.notifier.CertificateIssued(ctx, userID, attempt.ID, link)
	return &models.CertificateResponse{Success: true, CertificateURL: link}, nil
}

func (s *CertificateService) issue(ctx context.Context, attempt *models.TestAttempt) (*models.Certificate, error) {
	test, err := loadTest(ctx, s.tests, attempt.TestID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, attempt.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	issuedAt := s.now().UTC()
	pdf, err := s.renderer.Render(export.CertificateData{
		CertificateID: attempt.ID,
		StudentName:   user.FullName,
		TestTitle:     test.Title,
		GradeLabel:    models.GradeLabel(test.GradeLevel),
		Score:         *attempt.Score,
		TierLabel:     attempt.Tier.Label(),
		TierBand:      attempt.Tier.Band(),
		IssuedAt:      issuedAt,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	path, err := s.storage.Save(certificatePath(attempt.ID), pdf)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store certificate")
	}

	cert := &models.Certificate{AttemptID: attempt.ID, UserID: attempt.UserID, FilePath: path, IssuedAt: issuedAt}
	if err := s.certificates.Upsert(ctx, cert); err != nil {
		if delErr := s.storage.Delete(path); delErr != nil {
			s.logger.Error("orphaned certificate file", zap.String("path", path), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record certificate")
	}
	return cert, nil
}

func (s *CertificateService) link(attempt *models.TestAttempt, path string) (string, error) {
	token, _, err := s.signer.Sign(storage.DownloadGrant{ResourceID: attempt.ID, OwnerID: attempt.UserID, Path: path})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign certificate link")
	}
	return s.downloadURL + "?token=" + url.QueryEscape(token), nil
}

// Open resolves a signed download token to the stored file. The token must
// name the attempt owner recorded on the certificate. The caller closes the file.
func (s *CertificateService) Open(ctx context.Context, token string) (*os.File, string, error) {
	grant, err := s.signer.Verify(token)
	if err != nil || grant.Path != certificatePath(grant.ResourceID) {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	cert, err := s.certificates.FindByAttempt(ctx, grant.ResourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	if cert.UserID != grant.OwnerID {
		s.logger.Warn("certificate link owner mismatch", zap.String("attempt_id", grant.ResourceID))
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	file, err := s.storage.Open(cert.FilePath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
	}
	return file, "certificate-" + grant.ResourceID + ".pdf", nil
}
