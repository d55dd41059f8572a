package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fitpulse/insights/pkg/logger"
)

// RequestLogger emits one structured log line per request, leveled by
// response status. Paths listed in skip (health probes, metrics scrapes)
// produce no output.
func RequestLogger(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if skipped[path] {
			return
		}

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       path,
			"query":      c.Request.URL.RawQuery,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"size":       c.Writer.Size(),
		}
		if userID, exists := c.Get("user_id"); exists {
			fields["user_id"] = userID
		}
		if role, exists := c.Get("user_role"); exists {
			fields["role"] = role
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", nil, fields)
		case status >= 400:
			logger.Warn("HTTP request", fields)
		default:
			logger.Info("HTTP request", fields)
		}
	}
}
