package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
	"github.com/noah-isme/diagnostic-academy-api/pkg/response"
)

type certificateService interface {
	Generate(ctx context.Context, userID string, req models.AttemptRequest) (*models.CertificateResponse, error)
	Open(ctx context.Context, token string) (*os.File, string, error)
}

// CertificateHandler issues and serves certificates.
type CertificateHandler struct {
	service certificateService
}

// NewCertificateHandler constructs a CertificateHandler.
func NewCertificateHandler(svc certificateService) *CertificateHandler {
	return &CertificateHandler{service: svc}
}

// Generate godoc
// @Summary Issue the certificate of a graded attempt
// @Description Every failure after authentication is reported as 500 with a descriptive message.
// @Tags Certificates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.AttemptRequest true "Attempt"
// @Success 200 {object} models.CertificateResponse
// @Failure 401 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /functions/generate-certificate [post]
func (h *CertificateHandler) Generate(c *gin.Context) {
	claims := currentUser(c)
	if claims == nil {
		return
	}
	var req models.AttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.AsInternal(appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate payload")))
		return
	}
	res, err := h.service.Generate(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, appErrors.AsInternal(err))
		return
	}
	response.OK(c, res)
}

// Download godoc
// @Summary Download a certificate through a signed link
// @Tags Certificates
// @Produce application/pdf
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /certificates/download [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "download token required"))
		return
	}
	file, name, err := h.service.Open(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read certificate"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, nil)
}
