package errtrack

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"request-correlator/internal/log"
	"request-correlator/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline(t *testing.T, beforeSend BeforeSend) (*slog.Logger, *recordingTransport, *Client, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	transport := &recordingTransport{}
	client := NewClient(Options{Transport: transport, BeforeSend: beforeSend, Logger: discardLogger()})
	text := log.NewTextHandler(&buf, &log.TextHandlerOptions{Base: log.MessageFormatter})
	logger := slog.New(log.NewContextHandler(NewHandler(text, client, slog.LevelError)))

	return logger, transport, client, &buf
}

func TestHandler_CapturesErrorRecords(t *testing.T) {
	logger, transport, client, buf := newPipeline(t, nil)
	ctx := log.WithRequestID(context.Background(), "abcd1234")

	logger.InfoContext(ctx, "fine")
	logger.With(log.LoggerKey, "app.db").ErrorContext(ctx, "query failed", "table", "users", "attempt", 3, "error", errors.New("timeout"))
	require.NoError(t, client.Close(context.Background()))

	events := transport.Events()
	require.Len(t, events, 1)
	event := events[0]
	assert.Equal(t, "query failed", event.Message)
	assert.Equal(t, "error", event.Level)
	assert.Equal(t, "app.db", event.Logger)
	assert.Equal(t, "abcd1234", event.RequestID)
	assert.Len(t, event.EventID, 32)
	assert.Equal(t, map[string]any{"table": "users", "attempt": int64(3), "error": "timeout"}, event.Extra)

	assert.Equal(t,
		"INFO [rid=abcd1234] fine\nERROR [rid=abcd1234] query failed logger=app.db table=users attempt=3 error=timeout\n",
		buf.String())
}

func TestHandler_NoRequestInScope(t *testing.T) {
	logger, transport, client, _ := newPipeline(t, nil)

	logger.Error("background failure")
	require.NoError(t, client.Close(context.Background()))

	events := transport.Events()
	require.Len(t, events, 1)
	assert.Empty(t, events[0].RequestID)
}

func TestHandler_DisallowedHostIsFingerprinted(t *testing.T) {
	logger, transport, client, _ := newPipeline(t, Chain(FingerprintDisallowedHost(DefaultDisallowedHostLogger)))

	logger.With(log.LoggerKey, DefaultDisallowedHostLogger).Error("Invalid HTTP_HOST header", "host", "a.evil.test")
	logger.With(log.LoggerKey, DefaultDisallowedHostLogger).Error("Invalid HTTP_HOST header", "host", "b.evil.test")
	logger.With(log.LoggerKey, "http.server").Error("Request completed", "status", 502)
	require.NoError(t, client.Close(context.Background()))

	events := transport.Events()
	require.Len(t, events, 3)
	assert.Equal(t, []string{"disallowed-host"}, events[0].Fingerprint)
	assert.Equal(t, []string{"disallowed-host"}, events[1].Fingerprint)
	assert.Nil(t, events[2].Fingerprint)
}

func TestHandler_OriginalErrorInHint(t *testing.T) {
	var got Hint
	capture := func(event *Event, hint Hint) *Event {
		got = hint
		return event
	}
	logger, _, client, _ := newPipeline(t, capture)
	cause := errors.New("disk full")

	logger.Error("write failed", "error", cause)
	require.NoError(t, client.Close(context.Background()))

	require.NotNil(t, got.LogRecord)
	assert.Equal(t, "write failed", got.LogRecord.Message)
	assert.Equal(t, slog.LevelError, got.LogRecord.Level)
	assert.ErrorIs(t, got.OriginalError, cause)
}

func TestHandler_CapturesBelowNextHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	transport := &recordingTransport{}
	client := NewClient(Options{Transport: transport, Logger: discardLogger()})
	text := log.NewTextHandler(&buf, &log.TextHandlerOptions{Level: slog.LevelError + 4})
	logger := slog.New(NewHandler(text, client, slog.LevelWarn))

	logger.Warn("captured only")
	require.NoError(t, client.Close(context.Background()))

	assert.Len(t, transport.Events(), 1)
	assert.Empty(t, buf.String())
}

func TestHandler_GroupedAttrs(t *testing.T) {
	logger, transport, client, _ := newPipeline(t, nil)

	logger.WithGroup("http").Error("upstream failed", "status", 502)
	require.NoError(t, client.Close(context.Background()))

	events := transport.Events()
	require.Len(t, events, 1)
	assert.Equal(t, int64(502), events[0].Extra["http.status"])
}

func TestHandler_GroupedRecordKeepsRequestID(t *testing.T) {
	logger, transport, client, buf := newPipeline(t, nil)
	ctx := log.WithRequestID(context.Background(), "abcd1234")

	logger.WithGroup("http").ErrorContext(ctx, "upstream failed", "status", 502)
	require.NoError(t, client.Close(context.Background()))

	events := transport.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "abcd1234", events[0].RequestID)
	assert.Equal(t, "ERROR [rid=abcd1234] upstream failed http.status=502\n", buf.String())
}

func TestHandler_CaptureAfterCloseIsCounted(t *testing.T) {
	logger, transport, client, buf := newPipeline(t, nil)
	require.NoError(t, client.Close(context.Background()))

	rejectedBefore := testutil.ToFloat64(metrics.ErrorEvents.WithLabelValues(metrics.OutcomeRejected))

	logger.Error("after shutdown")

	assert.Empty(t, transport.Events())
	assert.Equal(t, "ERROR [rid=no-request] after shutdown\n", buf.String())
	assert.Equal(t, rejectedBefore+1, testutil.ToFloat64(metrics.ErrorEvents.WithLabelValues(metrics.OutcomeRejected)))
}
