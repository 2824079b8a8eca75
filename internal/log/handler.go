package log

import (
	"context"
	"log/slog"
	"sort"

	"request-correlator/internal/metrics"
)

// Attribute keys added to log records.
const (
	// RequestIDKey is the record attribute holding the request ID.
	RequestIDKey = "request_id"
	// LoggerKey is the record attribute holding the logger name.
	LoggerKey = "logger"
)

// ContextHandler tags every record with the request ID in scope and any
// LogFields carried by the context before passing it on. It never drops
// records.
type ContextHandler struct {
	slog.Handler

	// root is the wrapped handler before any WithAttrs or WithGroup call.
	root slog.Handler
	// ops replays the WithAttrs and WithGroup calls on top of root.
	ops []handlerOp
	// boundID is set once WithAttrs received a top-level request_id attribute.
	boundID bool
	// grouped is set once a group is open.
	grouped bool
}

type handlerOp struct {
	attrs []slog.Attr
	group string
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: next, root: next}
}

// Handle implements slog.Handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	next := h.Handler

	if !h.boundID && (h.grouped || !HasAttr(r, RequestIDKey)) {
		id, ok := RequestIDFromContext(ctx)
		if ok {
			metrics.LogRecordsEnriched.WithLabelValues(metrics.SourceRequest).Inc()
		} else {
			id = NoRequest
			metrics.LogRecordsEnriched.WithLabelValues(metrics.SourceNone).Inc()
		}
		if h.grouped {
			// Record attributes would land inside the open group, so the ID
			// is bound ahead of it.
			next = h.replay(slog.String(RequestIDKey, id))
		} else {
			r.AddAttrs(slog.String(RequestIDKey, id))
		}
	}

	fields := GetLogFields(ctx)
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			if k == RequestIDKey {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			r.AddAttrs(slog.Any(k, fields[k]))
		}
	}

	return next.Handle(ctx, r)
}

// replay rebuilds the handler chain from root with id bound first.
func (h *ContextHandler) replay(id slog.Attr) slog.Handler {
	next := h.root.WithAttrs([]slog.Attr{id})
	for _, op := range h.ops {
		if op.group != "" {
			next = next.WithGroup(op.group)
		} else {
			next = next.WithAttrs(op.attrs)
		}
	}
	return next
}

// WithAttrs implements slog.Handler.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	bound := h.boundID
	if !h.grouped {
		for _, a := range attrs {
			if a.Key == RequestIDKey {
				bound = true
			}
		}
	}
	return h.derive(h.Handler.WithAttrs(attrs), handlerOp{attrs: attrs}, bound, h.grouped)
}

// WithGroup implements slog.Handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.derive(h.Handler.WithGroup(name), handlerOp{group: name}, h.boundID, true)
}

func (h *ContextHandler) derive(next slog.Handler, op handlerOp, bound, grouped bool) *ContextHandler {
	ops := make([]handlerOp, 0, len(h.ops)+1)
	ops = append(ops, h.ops...)
	ops = append(ops, op)
	return &ContextHandler{Handler: next, root: h.root, ops: ops, boundID: bound, grouped: grouped}
}

// HasAttr reports whether r carries a top-level attribute named key.
func HasAttr(r slog.Record, key string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			found = true
			return false
		}
		return true
	})
	return found
}
