package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/m073med011/lms-api/internal/app/service/users"
	"github.com/m073med011/lms-api/pkg/response"
	"github.com/m073med011/lms-api/pkg/types"
)

// AuthMiddleware validates the Bearer token and stores the caller's
// identity in the context. The request-scoped logger is re-attached
// enriched with user_id so downstream log lines carry it.
func AuthMiddleware(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == "" || raw == header {
			c.AbortWithStatusJSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing bearer token"))
			return
		}

		claims, err := svc.ParseToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthorized, err.Error()))
			return
		}

		c.Set("userID", claims.Subject)
		c.Set("userRole", claims.Role)

		if l, ok := c.Get("logger"); ok {
			if log, ok := l.(*zap.SugaredLogger); ok && log != nil {
				enriched := log.With("user_id", claims.Subject)
				c.Set("logger", enriched)
				ctx := context.WithValue(c.Request.Context(), "logger", enriched)
				c.Request = c.Request.WithContext(ctx)
			}
		}

		c.Next()
	}
}

// RequireRole gates a route group to a single role. It assumes
// AuthMiddleware already ran.
func RequireRole(role types.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userRole") != string(role) {
			c.AbortWithStatusJSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeForbidden, "insufficient role"))
			return
		}
		c.Next()
	}
}
