package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
)

// ErrorBody is the failure contract: a human-readable error plus a stable code.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Outcome is the contract for business-rule results the client branches on.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JSON sends the payload as-is.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Succeeded writes a 200 {success:true,message}.
func Succeeded(c *gin.Context, message string) {
	OK(c, Outcome{Success: true, Message: message})
}

// Rejected writes a business-rule rejection. These are expected states, so the status stays 200.
func Rejected(c *gin.Context, message string) {
	OK(c, Outcome{Success: false, Message: message})
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	_ = c.Error(err)
	c.JSON(appErr.Status, ErrorBody{Error: appErr.Message, Code: appErr.Code})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
