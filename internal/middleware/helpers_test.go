package middleware

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"request-correlator/internal/log"

	"github.com/gin-gonic/gin"
)

type staticGenerator struct {
	values []string
	calls  int
}

func (g *staticGenerator) Generate() string {
	v := g.values[g.calls%len(g.values)]
	g.calls++
	return v
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := strings.TrimSuffix(b.buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// captureLogs routes the default logger into a buffer for the duration of the test.
func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()

	buf := &syncBuffer{}
	previous := slog.Default()
	slog.SetDefault(slog.New(log.NewContextHandler(log.NewTextHandler(buf, &log.TextHandlerOptions{
		Level: slog.LevelInfo,
		Base:  log.MessageFormatter,
	}))))
	t.Cleanup(func() { slog.SetDefault(previous) })

	return buf
}

func newTestRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware...)
	return router
}
