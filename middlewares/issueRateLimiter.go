package middlewares

import (
	"log/slog"
	"math"
	"net/http"
	"time"

	"civicportal-be/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// IssueRateLimiter caps how many submissions a caller may start per window. Callers are keyed
// by user id when signed in, otherwise by client IP.
func IssueRateLimiter(client redis.Cmdable, queuePrefix string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		caller := "ip:" + c.ClientIP()
		if userID, ok := utils.GetUserIDFromContext(ctx); ok {
			caller = "user:" + userID
		}
		key := queuePrefix + ":" + caller

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			slog.ErrorContext(ctx, "rate limiter increment failed", "error", err)
			utils.AbortWithNotice(c, http.StatusInternalServerError, utils.Notice{
				Kind:      utils.NoticeRateLimit,
				Message:   "rate limiter unavailable",
				Retryable: true,
			})
			return
		}

		// TTL only on the first hit so the window is fixed, not sliding
		if count == 1 {
			if err := client.Expire(ctx, key, window).Err(); err != nil {
				slog.ErrorContext(ctx, "rate limiter expire failed", "error", err)
				utils.AbortWithNotice(c, http.StatusInternalServerError, utils.Notice{
					Kind:      utils.NoticeRateLimit,
					Message:   "rate limiter unavailable",
					Retryable: true,
				})
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := client.TTL(ctx, key).Result()
			body := utils.NoticeBody(utils.Notice{
				Kind:      utils.NoticeRateLimit,
				Message:   "rate limit exceeded",
				Retryable: true,
			})
			body["retry_after"] = math.Max(retryAfter.Seconds(), 0)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, body)
			return
		}

		c.Next()
	}
}
