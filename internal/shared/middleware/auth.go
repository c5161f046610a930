package middleware

import (
	"strings"

	"github.com/alxtravel/server/internal/shared/auth"
	apperrors "github.com/alxtravel/server/internal/shared/errors"
	"github.com/alxtravel/server/internal/shared/response"
	"github.com/gin-gonic/gin"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// UserIDKey is the context key for user ID.
	UserIDKey = "user_id"
	// EmailKey is the context key for email.
	EmailKey = "email"
)

// JWTValidator validates access tokens.
type JWTValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// RequireAuth returns a middleware that rejects requests without a valid bearer token.
func RequireAuth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			response.Abort(c, apperrors.Unauthorized("authorization header required"))
			return
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			response.Abort(c, apperrors.Unauthorized("invalid or expired token"))
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader(AuthorizationHeader)
	if !strings.HasPrefix(header, BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
}

// GetUserID returns the authenticated user ID, or 0 if none.
func GetUserID(c *gin.Context) uint64 {
	if val, exists := c.Get(UserIDKey); exists {
		if userID, ok := val.(uint64); ok {
			return userID
		}
	}
	return 0
}

// GetEmail returns the authenticated email, or "" if none.
func GetEmail(c *gin.Context) string {
	return c.GetString(EmailKey)
}
