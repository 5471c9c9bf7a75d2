package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
	"github.com/noah-isme/diagnostic-academy-api/pkg/export"
)

type resultsRepository interface {
	ListResults(ctx context.Context, testID string) ([]models.AttemptResultRow, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

var resultHeaders = []string{"attempt_id", "student_name", "student_email", "test", "grade", "payment_status", "score", "tier", "band", "total_graded", "completed_at"}

// ExportResult is a rendered export ready for download.
type ExportResult struct {
	Filename string
	Body     []byte
}

// ExportService renders submitted attempt results for staff.
type ExportService struct {
	results resultsRepository
	csv     csvRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(results resultsRepository, csv csvRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &ExportService{results: results, csv: csv, logger: logger, now: time.Now}
}

// ResultsCSV exports completed attempts, optionally restricted to one test.
func (s *ExportService) ResultsCSV(ctx context.Context, testID string) (*ExportResult, error) {
	rows, err := s.results.ListResults(ctx, testID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}

	dataset := export.Dataset{Headers: resultHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, r := range rows {
		row := map[string]string{
			"attempt_id":     r.AttemptID,
			"student_name":   r.StudentName,
			"student_email":  r.StudentEmail,
			"test":           r.TestTitle,
			"grade":          models.GradeLabel(r.GradeLevel),
			"payment_status": string(r.PaymentStatus),
			"total_graded":   strconv.Itoa(r.TotalGraded),
		}
		if r.Score != nil {
			row["score"] = strconv.FormatFloat(*r.Score, 'f', 2, 64)
		}
		if r.Tier != nil {
			row["tier"] = r.Tier.Label()
			row["band"] = r.Tier.Band()
		}
		if r.CompletedAt != nil {
			row["completed_at"] = r.CompletedAt.UTC().Format(time.RFC3339)
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	body, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render results")
	}
	s.logger.Info("results exported", zap.Int("rows", len(rows)), zap.String("test_id", testID))
	return &ExportResult{
		Filename: fmt.Sprintf("results-%s.csv", s.now().UTC().Format("20060102-150405")),
		Body:     body,
	}, nil
}
