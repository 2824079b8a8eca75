package log

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// serverTimeLayout matches the timestamp of a classic server access log.
const serverTimeLayout = "02/Jan/2006 15:04:05"

// BaseFormatter renders the body of a log line. attrs never contain the
// request ID.
type BaseFormatter func(r slog.Record, attrs []slog.Attr) string

// MessageFormatter renders "msg k=v ...".
func MessageFormatter(r slog.Record, attrs []slog.Attr) string {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(formatValue(a.Value))
	}
	return b.String()
}

// ServerFormatter renders "[02/Jan/2006 15:04:05] msg k=v ...".
func ServerFormatter(r slog.Record, attrs []slog.Attr) string {
	msg := MessageFormatter(r, attrs)
	if r.Time.IsZero() {
		return msg
	}
	return "[" + r.Time.Format(serverTimeLayout) + "] " + msg
}

// LevelLabel returns the severity label printed in front of every line.
func LevelLabel(l slog.Level) string {
	if l == slog.LevelWarn {
		return "WARNING"
	}
	return l.String()
}

// TextHandlerOptions configures a TextHandler.
type TextHandlerOptions struct {
	// Level is the minimum level written. Defaults to slog.LevelInfo.
	Level slog.Leveler
	// Base renders the line body. Defaults to ServerFormatter.
	Base BaseFormatter
}

// TextHandler writes "<LEVEL> [rid=<id>] <body>" lines.
type TextHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	base   BaseFormatter
	attrs  []slog.Attr
	groups []string
}

// NewTextHandler returns a TextHandler writing to w.
func NewTextHandler(w io.Writer, opts *TextHandlerOptions) *TextHandler {
	h := &TextHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: slog.LevelInfo,
		base:  ServerFormatter,
	}
	if opts != nil {
		if opts.Level != nil {
			h.level = opts.Level
		}
		if opts.Base != nil {
			h.base = opts.Base
		}
	}
	return h
}

// Enabled implements slog.Handler.
func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *TextHandler) Handle(ctx context.Context, r slog.Record) error {
	line := h.Format(ctx, r) + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line)
	return err
}

// Format renders r without the trailing newline. A record that reached the
// handler without a request ID gets one resolved from ctx.
func (h *TextHandler) Format(ctx context.Context, r slog.Record) string {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		attrs = appendFlat(attrs, prefix, a)
		return true
	})

	requestID := ""
	body := attrs[:0:0]
	for _, a := range attrs {
		if a.Key == RequestIDKey {
			requestID = a.Value.String()
			continue
		}
		body = append(body, a)
	}
	if requestID == "" {
		requestID = ResolveRequestID(ctx)
	}

	return LevelLabel(r.Level) + " [rid=" + requestID + "] " + h.base(r, body)
}

// WithAttrs implements slog.Handler.
func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	prefix := strings.Join(h.groups, ".")
	for _, a := range attrs {
		h2.attrs = appendFlat(h2.attrs, prefix, a)
	}
	return h2
}

// WithGroup implements slog.Handler.
func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

func (h *TextHandler) clone() *TextHandler {
	return &TextHandler{
		mu:     h.mu,
		w:      h.w,
		level:  h.level,
		base:   h.base,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func appendFlat(dst []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if prefix != "" {
		key = prefix
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			dst = appendFlat(dst, key, ga)
		}
		return dst
	}
	return append(dst, slog.Attr{Key: key, Value: a.Value})
}

func formatValue(v slog.Value) string {
	s := v.String()
	if needsQuoting(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if unicode.IsSpace(r) || r == '"' || r == '=' || !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}
