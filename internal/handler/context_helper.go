package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/diagnostic-academy-api/internal/middleware"
	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
	"github.com/noah-isme/diagnostic-academy-api/pkg/response"
)

// currentUser returns the caller or writes a 401 and returns nil.
func currentUser(c *gin.Context) *models.JWTClaims {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return claims
}

// bindJSON decodes the body or writes a 400 and returns false.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}

func writeOutcome(c *gin.Context, out *models.Outcome) {
	if out.Success {
		response.Succeeded(c, out.Message)
		return
	}
	response.Rejected(c, out.Message)
}
