package middleware

import (
	"net"
	"net/http"
	"strings"

	"request-correlator/internal/log"

	"github.com/gin-gonic/gin"
)

// AllowedHosts rejects requests whose Host header matches none of hosts.
//
// An entry of "*" allows any host and an entry starting with "." matches the
// domain and all of its subdomains. Rejections are logged at error level on
// the loggerName logger and answered with 400.
func AllowedHosts(hosts []string, loggerName string) gin.HandlerFunc {
	patterns := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			patterns = append(patterns, h)
		}
	}

	return func(c *gin.Context) {
		if hostAllowed(c.Request.Host, patterns) {
			c.Next()
			return
		}

		log.Named(loggerName).ErrorContext(c.Request.Context(), "Invalid HTTP_HOST header",
			"host", c.Request.Host,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "invalid host header",
		})
	}
}

func hostAllowed(rawHost string, patterns []string) bool {
	host := strings.ToLower(rawHost)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.Trim(host, "[]"), ".")
	if host == "" {
		return false
	}

	for _, p := range patterns {
		switch {
		case p == "*":
			return true
		case strings.HasPrefix(p, "."):
			if host == p[1:] || strings.HasSuffix(host, p) {
				return true
			}
		case host == p:
			return true
		}
	}
	return false
}
