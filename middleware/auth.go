package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"tourbook/jwt"
	"tourbook/models"
)

// Context keys set by AuthMiddleware.
const (
	KeyToken  = "Token"
	KeyUserID = "UserID"
	KeyRole   = "Role"
)

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (jwt.Claims, error)
}

// AuthMiddleware resolves the bearer token into UserID and Role. Requests
// without a valid token continue as guests.
func AuthMiddleware(tokens TokenVerifier, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		c.Set(KeyRole, models.RoleGuest)

		authHeader := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.Next()
			return
		}

		claims, err := tokens.VerifyToken(c.Request.Context(), token)
		if err != nil {
			log.Debug("rejected session token", slog.Any("err", err))
			c.Header("Authorization", "")
			c.Next()
			return
		}

		c.Set(KeyToken, token)
		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}

// Role returns the caller's role, guest when unauthenticated.
func Role(c *gin.Context) string {
	if role, ok := c.Get(KeyRole); ok {
		if s, ok := role.(string); ok && s != "" {
			return s
		}
	}
	return models.RoleGuest
}

// UserID returns the authenticated user's id.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(KeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
