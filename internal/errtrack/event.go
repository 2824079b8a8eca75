package errtrack

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is an error report sent to the tracking service.
type Event struct {
	EventID     string         `json:"event_id"`
	Timestamp   time.Time      `json:"timestamp"`
	Level       string         `json:"level"`
	Logger      string         `json:"logger,omitempty"`
	Message     string         `json:"message"`
	RequestID   string         `json:"request_id,omitempty"`
	Fingerprint []string       `json:"fingerprint,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// NewEvent returns an event with a fresh ID.
func NewEvent(ts time.Time, level slog.Level, message string) *Event {
	return &Event{
		EventID:   strings.ReplaceAll(uuid.NewString(), "-", ""),
		Timestamp: ts,
		Level:     strings.ToLower(level.String()),
		Message:   message,
	}
}

// LogRecord describes the log record an event originated from.
type LogRecord struct {
	Name    string
	Level   slog.Level
	Message string
}

// Hint carries context about an event that is not sent with it.
type Hint struct {
	// LogRecord is nil for events not created from a log record.
	LogRecord *LogRecord
	// OriginalError is the error logged with the record, if any.
	OriginalError error
}
