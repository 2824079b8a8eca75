package errtrack

import (
	"context"
	"log/slog"
	"strings"

	"request-correlator/internal/log"
)

// Handler captures records at or above a level as events and passes every
// record on to the next handler unchanged.
type Handler struct {
	next   slog.Handler
	client *Client
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewHandler wraps next. Records at or above level are captured by client.
func NewHandler(next slog.Handler, client *Client, level slog.Leveler) *Handler {
	return &Handler{next: next, client: client, level: level}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= h.level.Level() || h.next.Enabled(ctx, l)
}

// Handle implements slog.Handler.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level.Level() {
		event, hint := h.event(ctx, r)
		// Refused events are counted by the client; logging must not fail on them.
		_ = h.client.Capture(event, hint)
	}
	if !h.next.Enabled(ctx, r.Level) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	h2.next = h.next.WithAttrs(attrs)
	h2.attrs = append(h2.attrs, qualify(h.groups, attrs)...)
	return h2
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	h2 := h.clone()
	h2.next = h.next.WithGroup(name)
	if name != "" {
		h2.groups = append(h2.groups, name)
	}
	return h2
}

func (h *Handler) clone() *Handler {
	return &Handler{
		next:   h.next,
		client: h.client,
		level:  h.level,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *Handler) event(ctx context.Context, r slog.Record) (*Event, Hint) {
	event := NewEvent(r.Time, r.Level, r.Message)
	hint := Hint{LogRecord: &LogRecord{Level: r.Level, Message: r.Message}}

	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, qualify(h.groups, []slog.Attr{a})...)
		return true
	})

	for _, a := range attrs {
		a.Value = a.Value.Resolve()
		switch a.Key {
		case log.LoggerKey:
			event.Logger = a.Value.String()
			hint.LogRecord.Name = event.Logger
			continue
		case log.RequestIDKey:
			if id := a.Value.String(); id != log.NoRequest {
				event.RequestID = id
			}
			continue
		}
		if err, ok := a.Value.Any().(error); ok && hint.OriginalError == nil {
			hint.OriginalError = err
		}
		if event.Extra == nil {
			event.Extra = make(map[string]any)
		}
		event.Extra[a.Key] = extraValue(a.Value)
	}

	if event.RequestID == "" {
		if id, ok := log.RequestIDFromContext(ctx); ok {
			event.RequestID = id
		}
	}

	return event, hint
}

func qualify(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}
	prefix := strings.Join(groups, ".") + "."
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.Attr{Key: prefix + a.Key, Value: a.Value})
	}
	return out
}

func extraValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString, slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindBool:
		return v.Any()
	default:
		return v.String()
	}
}
