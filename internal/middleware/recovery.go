package middleware

import (
	"io"
	"net/http"

	"request-correlator/internal/log"

	"github.com/gin-gonic/gin"
)

// RecoveryLogger is the logger name of recovered panics.
const RecoveryLogger = "http.recovery"

// Recovery turns a panic in the handler chain into a 500 and logs it through
// the request-aware logger. Install it after RequestID so the panic line and
// the completion line carry the request ID.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, err any) {
		log.Named(RecoveryLogger).ErrorContext(c, "Panic recovered",
			"error", err,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}
