package middleware

import (
	"context"
	"net"
	"strings"

	"request-correlator/internal/log"
	"request-correlator/internal/metrics"
	"request-correlator/internal/requestid"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderRequestID carries the request ID on responses (and, when trusted, on requests).
	HeaderRequestID = "X-Request-ID"
	// RequestIDKey is the gin context key the request ID is stored under.
	RequestIDKey = "request_id"

	maxHeaderRequestIDLength = 64
)

type requestIDConfig struct {
	trustHeader bool
}

// RequestIDOption configures the RequestID middleware.
type RequestIDOption func(*requestIDConfig)

// WithTrustedHeader makes RequestID reuse a well-formed inbound X-Request-ID
// instead of generating one.
func WithTrustedHeader() RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.trustHeader = true
	}
}

// RequestID assigns a request ID to every request before the rest of the
// chain runs. The ID is written to the connection's Slot, the request
// context, the gin context and the X-Request-ID response header.
//
// The Slot is not cleared when the chain returns. Loggers that run after
// this middleware keep reporting the ID until the next request on the same
// connection overwrites it.
func RequestID(gen requestid.Generator, opts ...RequestIDOption) gin.HandlerFunc {
	cfg := &requestIDConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		requestID := ""
		if cfg.trustHeader {
			requestID = normalizeRequestID(c.GetHeader(HeaderRequestID))
		}
		if requestID == "" {
			requestID = gen.Generate()
		}

		ctx := c.Request.Context()
		slot := log.SlotFromContext(ctx)
		if slot == nil {
			slot = log.NewSlot()
			ctx = log.WithSlot(ctx, slot)
		}
		slot.Set(requestID)
		ctx = log.WithRequestID(ctx, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Set(RequestIDKey, requestID)
		c.Header(HeaderRequestID, requestID)
		metrics.RequestsStamped.Inc()

		log.Debug(ctx, "Request ID assigned",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		c.Next()
	}
}

// GetRequestID returns the request ID assigned to c, or "" outside RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// ConnContext installs a fresh Slot for every accepted connection. Use it as
// http.Server.ConnContext.
func ConnContext(ctx context.Context, _ net.Conn) context.Context {
	return log.WithSlot(ctx, log.NewSlot())
}

func normalizeRequestID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxHeaderRequestIDLength {
		return ""
	}
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}
	return v
}
