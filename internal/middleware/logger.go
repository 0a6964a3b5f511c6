package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthtown-api/pkg/logger"
)

// Logger emits one structured line per request. Bodies are never logged;
// consultation payloads carry patient data.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"request_id", c.GetString(ContextRequestID),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"user_agent", c.Request.UserAgent(),
		}
		if role := c.GetHeader(HeaderUserRole); role != "" {
			fields = append(fields, "role", role)
		}

		switch {
		case status >= 500:
			log.Warn("Server error", fields...)
		case status >= 400:
			log.Info("Client error", fields...)
		default:
			log.Debug("Request processed", fields...)
		}
	}
}
