package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/diagnostic-academy-api/internal/service"
	"github.com/noah-isme/diagnostic-academy-api/pkg/response"
)

type resultsExporter interface {
	ResultsCSV(ctx context.Context, testID string) (*service.ExportResult, error)
}

// ExportHandler serves staff exports.
type ExportHandler struct {
	service resultsExporter
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(svc resultsExporter) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Results godoc
// @Summary Export submitted attempt results as CSV
// @Tags Exports
// @Produce text/csv
// @Security BearerAuth
// @Param testId query string false "Restrict to one test"
// @Success 200 {file} file
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /exports/results [get]
func (h *ExportHandler) Results(c *gin.Context) {
	res, err := h.service.ResultsCSV(c.Request.Context(), c.Query("testId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", res.Body)
}
