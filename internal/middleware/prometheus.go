package middleware

import (
	"time"

	"assettracker/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Prometheus records request duration and count for each request. The route
// template is used as the path label when gin matched one.
func Prometheus() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Request.URL.Path == "/metrics" {
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metrics.RecordRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start).Seconds())
	}
}
