package middlewares

import (
	"net/http"
	"sync"
	"time"

	"civicportal-be/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// UpvoteLimiter is a per-IP token bucket refilling perMinute tokens each minute.
type UpvoteLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewUpvoteLimiter(perMinute int) *UpvoteLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &UpvoteLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (l *UpvoteLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

func (l *UpvoteLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.limiter(c.ClientIP()).Allow() {
			utils.AbortWithNotice(c, http.StatusTooManyRequests, utils.Notice{
				Kind:      utils.NoticeRateLimit,
				Message:   "too many upvotes, slow down",
				Retryable: true,
			})
			return
		}
		c.Next()
	}
}
