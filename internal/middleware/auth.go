package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/set-night/mindchat/internal/domain"
)

const UserKey = "user"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// GetUser extracts the authenticated user from the gin context.
func GetUser(c *gin.Context) *domain.User {
	u, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	user, _ := u.(*domain.User)
	return user
}

// Auth returns middleware that loads the user behind the bearer token.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			slog.Error("authenticate", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// RequireAdmin lets through users whose email isAdmin accepts. It must run
// after Auth.
func RequireAdmin(isAdmin func(email string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil || !isAdmin(user.Email) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}
