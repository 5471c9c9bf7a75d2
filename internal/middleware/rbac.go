package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/diagnostic-academy-api/internal/models"
	appErrors "github.com/noah-isme/diagnostic-academy-api/pkg/errors"
	"github.com/noah-isme/diagnostic-academy-api/pkg/response"
)

// RoleChecker looks up role records of a user.
type RoleChecker interface {
	HasAnyRole(ctx context.Context, userID string, roles ...models.UserRole) (bool, error)
}

// RequireRoles admits callers holding at least one of the roles. Roles are read
// from stored role records on every request, never from the token.
func RequireRoles(checker RoleChecker, logger *zap.Logger, roles ...models.UserRole) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		ok, err := checker.HasAnyRole(c.Request.Context(), claims.UserID, roles...)
		if err != nil {
			logger.Error("role lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify permissions"))
			c.Abort()
			return
		}
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin or teacher role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
