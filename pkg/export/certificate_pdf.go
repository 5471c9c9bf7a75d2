package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData is the content printed on a diagnostic certificate.
type CertificateData struct {
	CertificateID string
	StudentName   string
	TestTitle     string
	GradeLabel    string
	Score         float64
	TierLabel     string
	TierBand      string
	IssuedAt      time.Time
	AcademyName   string
}

// CertificateRenderer renders certificates into single-page landscape PDFs.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a renderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render creates the certificate PDF.
func (r *CertificateRenderer) Render(data CertificateData) ([]byte, error) {
	if strings.TrimSpace(data.StudentName) == "" {
		return nil, fmt.Errorf("certificate requires a student name")
	}
	if data.AcademyName == "" {
		data.AcademyName = "Diagnostic Academy"
	}
	if data.IssuedAt.IsZero() {
		data.IssuedAt = time.Now().UTC()
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetDrawColor(30, 64, 175)
	pdf.SetLineWidth(1.5)
	pdf.Rect(10, 10, 277, 190, "D")
	pdf.SetLineWidth(0.4)
	pdf.Rect(14, 14, 269, 182, "D")

	pdf.SetY(32)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(30, 64, 175)
	pdf.CellFormat(0, 8, tr(strings.ToUpper(data.AcademyName)), "", 1, "C", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 30)
	pdf.SetTextColor(17, 24, 39)
	pdf.CellFormat(0, 14, "Certificate of Completion", "", 1, "C", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 14, tr(data.StudentName), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(0, 8, "has completed the diagnostic assessment", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 16)
	title := data.TestTitle
	if data.GradeLabel != "" {
		title = fmt.Sprintf("%s (%s)", data.TestTitle, data.GradeLabel)
	}
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 13)
	result := fmt.Sprintf("Score: %.2f%%", data.Score)
	if data.TierLabel != "" {
		result = fmt.Sprintf("%s  |  %s", result, data.TierLabel)
		if data.TierBand != "" {
			result = fmt.Sprintf("%s (%s)", result, data.TierBand)
		}
	}
	pdf.CellFormat(0, 8, tr(result), "", 1, "C", false, 0, "")

	pdf.SetY(170)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(75, 85, 99)
	pdf.CellFormat(130, 6, "Issued "+data.IssuedAt.Format("January 2, 2006"), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Certificate ID: "+data.CertificateID, "", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
