package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/set-night/mindchat/internal/config"
)

// RateCounter counts requests per user in the current one-minute window.
type RateCounter interface {
	CheckAndIncrementRateLimit(ctx context.Context, userID int64) (int32, error)
}

// RateLimit returns middleware that enforces per-minute rate limits. It must
// run after Auth so premium users get their higher limit.
func RateLimit(counter RateCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil {
			c.Next()
			return
		}

		count, err := counter.CheckAndIncrementRateLimit(c.Request.Context(), user.ID)
		if err != nil {
			slog.Error("rate limit check failed", "error", err, "user_id", user.ID)
			c.Next()
			return
		}

		limit := int32(config.RateLimitRegular)
		if user.IsPremium() {
			limit = config.RateLimitPremium
		}

		if count > limit {
			slog.Debug("rate limited", "user_id", user.ID, "count", count, "limit", limit)
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again in a minute"})
			return
		}

		c.Next()
	}
}
