package middleware

import (
	"net/http"
	"strconv"

	"assettracker/internal/rate_limiter"

	"github.com/gin-gonic/gin"
)

// RateLimitWrites throttles mutating requests per client IP. Reads pass
// through.
func RateLimitWrites(rl *rate_limiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		client := c.ClientIP()
		if !rl.IsAllowed(client) {
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again later"})
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.GetRemainingRequests(client)))
		c.Next()
	}
}
