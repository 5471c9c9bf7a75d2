package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificateRendererProducesPDF(t *testing.T) {
	renderer := NewCertificateRenderer()
	out, err := renderer.Render(CertificateData{
		CertificateID: "cert-1",
		StudentName:   "Ana María",
		TestTitle:     "Grade 5 Math Diagnostic",
		GradeLabel:    "Grade 5",
		Score:         87.5,
		TierLabel:     "Tier 1",
		TierBand:      "Mastery",
		IssuedAt:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestCertificateRendererRequiresName(t *testing.T) {
	_, err := NewCertificateRenderer().Render(CertificateData{TestTitle: "x"})
	assert.Error(t, err)
}
