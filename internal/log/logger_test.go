package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func useBuffer(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(NewContextHandler(NewTextHandler(&buf, &TextHandlerOptions{
		Level: slog.LevelDebug,
		Base:  MessageFormatter,
	}))))
	t.Cleanup(func() { slog.SetDefault(previous) })

	return &buf
}

func TestHelpers_ResolveFromContext(t *testing.T) {
	buf := useBuffer(t)
	ctx := WithRequestID(context.Background(), "abcd1234")

	Debug(ctx, "d")
	Info(ctx, "i")
	Warn(ctx, "w")
	Error(context.Background(), "e")

	assert.Equal(t, strings.Join([]string{
		"DEBUG [rid=abcd1234] d",
		"INFO [rid=abcd1234] i",
		"WARNING [rid=abcd1234] w",
		"ERROR [rid=no-request] e",
	}, "\n")+"\n", buf.String())
}

func TestNamed(t *testing.T) {
	buf := useBuffer(t)

	Named("security.DisallowedHost").Error("bad host")

	assert.Equal(t, "ERROR [rid=no-request] bad host logger=security.DisallowedHost\n", buf.String())
}

func TestWithContext_GinContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := useBuffer(t)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), "gin00001"))

	WithContext(c).Info("from gin")
	WithContext(nil).Info("no context")

	assert.Equal(t, "INFO [rid=gin00001] from gin\nINFO [rid=no-request] no context\n", buf.String())
}

func TestHelpers_GinContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := useBuffer(t)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), "gin00001"))

	Info(c, "via gin ctx")
	Warn(c, "still via gin ctx")

	assert.Equal(t, "INFO [rid=gin00001] via gin ctx\nWARNING [rid=gin00001] still via gin ctx\n", buf.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}
