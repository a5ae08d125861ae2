package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/learninverse/server/utils/ratelimit"
)

// RateLimitMiddleware limits requests per client IP with a Redis-backed
// fixed window. The limiter is shared across nodes, so the cap holds
// cluster-wide.
func RateLimitMiddleware(limiter ratelimit.Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "http:" + c.ClientIP()
		ok, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil || !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, please slow down",
			})
			return
		}
		c.Next()
	}
}

// MaxConcurrencyMiddleware bounds in-flight requests with a buffered
// channel semaphore. Requests beyond the cap are rejected immediately
// rather than queued, keeping memory flat under load spikes.
func MaxConcurrencyMiddleware(maxConcurrent int) gin.HandlerFunc {
	sem := make(chan struct{}, maxConcurrent)

	return func(c *gin.Context) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "server is at capacity, please retry",
			})
		}
	}
}
