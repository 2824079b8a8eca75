package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"request-correlator/internal/log"

	"github.com/gin-gonic/gin"
)

// AccessLogger is the logger name of request completion lines.
const AccessLogger = "http.server"

// LoggingMiddleware logs every request after it completed.
//
// It must be installed before RequestID. The completion line is logged with
// the context the request arrived with, so its request ID comes from the
// connection's Slot after the rest of the chain returned.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		startTime := time.Now()

		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		duration := time.Since(startTime)
		log.Named(AccessLogger).Log(ctx, level, "Request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_seconds", duration.Seconds(),
		)
	}
}
