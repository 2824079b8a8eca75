package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"request-correlator/internal/log"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddleware_ReadsConnectionSlotAfterChain(t *testing.T) {
	logs := captureLogs(t)
	router := newTestRouter(LoggingMiddleware(), RequestID(&staticGenerator{values: []string{"abcd1234"}}))
	router.GET("/items", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	connCtx := log.WithSlot(context.Background(), log.NewSlot())
	req := httptest.NewRequest(http.MethodGet, "/items", nil).WithContext(connCtx)
	router.ServeHTTP(httptest.NewRecorder(), req)

	lines := logs.Lines()
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "INFO [rid=abcd1234] Request completed logger=http.server method=GET path=/items status=202 duration_seconds="), lines[0])
}

// Without a connection Slot the completion line has nothing to read back.
func TestLoggingMiddleware_NoConnectionSlot(t *testing.T) {
	logs := captureLogs(t)
	router := newTestRouter(LoggingMiddleware(), RequestID(&staticGenerator{values: []string{"abcd1234"}}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	lines := logs.Lines()
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "INFO [rid=no-request] Request completed"), lines[0])
}

func TestLoggingMiddleware_ServerErrorsLogAtErrorLevel(t *testing.T) {
	logs := captureLogs(t)
	router := newTestRouter(LoggingMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	lines := logs.Lines()
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "ERROR [rid=no-request] Request completed"), lines[0])
}
