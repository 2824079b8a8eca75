package log

import (
	"context"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

// Context keys for storing log metadata.
const (
	// RequestIDCtxKey is the context key for an explicitly passed request ID.
	RequestIDCtxKey ContextKey = "request_id"
	// SlotKey is the context key for the execution unit's Slot.
	SlotKey ContextKey = "request_id_slot"
	// LogFieldsKey is the context key for additional log fields.
	LogFieldsKey ContextKey = "log_fields"
)

// NoRequest is reported in place of a request ID when none is in scope.
const NoRequest = "no-request"

// Slot holds the current request ID of one execution unit.
//
// A Slot is installed once per connection and overwritten by every request
// served on it. It is never cleared, so a read after a request completed
// observes that request's ID until the next request replaces it.
type Slot struct {
	id atomic.Pointer[string]
}

// NewSlot returns an empty Slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Set overwrites the current request ID.
func (s *Slot) Set(id string) {
	if s == nil {
		return
	}
	s.id.Store(&id)
}

// Get returns the current request ID, or false if none was ever set.
func (s *Slot) Get() (string, bool) {
	if s == nil {
		return "", false
	}
	id := s.id.Load()
	if id == nil {
		return "", false
	}
	return *id, true
}

// WithSlot installs the Slot of the current execution unit into the context.
func WithSlot(ctx context.Context, slot *Slot) context.Context {
	return context.WithValue(ctx, SlotKey, slot)
}

// SlotFromContext returns the Slot installed in ctx, or nil.
func SlotFromContext(ctx context.Context) *Slot {
	ctx = requestContext(ctx)
	if ctx == nil {
		return nil
	}
	slot, _ := ctx.Value(SlotKey).(*Slot)
	return slot
}

// WithRequestID stores a request ID in the context for explicit passing.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDCtxKey, id)
}

// RequestIDFromContext returns the request ID visible from ctx.
// An explicitly passed ID wins over the Slot.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	ctx = requestContext(ctx)
	if ctx == nil {
		return "", false
	}
	if id, ok := ctx.Value(RequestIDCtxKey).(string); ok && id != "" {
		return id, true
	}
	return SlotFromContext(ctx).Get()
}

// ResolveRequestID returns the request ID visible from ctx or NoRequest.
func ResolveRequestID(ctx context.Context) string {
	if id, ok := RequestIDFromContext(ctx); ok {
		return id
	}
	return NoRequest
}

// LogFields represents a collection of structured log fields.
type LogFields map[string]any

// WithFields adds or updates log fields in the context.
// If fields already exist in the context, they will be merged with new fields overwriting existing ones.
func WithFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := make(LogFields, len(existing)+len(fields))

	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return context.WithValue(ctx, LogFieldsKey, merged)
}

// GetLogFields retrieves log fields from the context.
// Returns an empty LogFields if none are found.
func GetLogFields(ctx context.Context) LogFields {
	ctx = requestContext(ctx)
	if ctx == nil {
		return make(LogFields)
	}
	if fields, ok := ctx.Value(LogFieldsKey).(LogFields); ok {
		return fields
	}
	return make(LogFields)
}

// requestContext unwraps a gin context to its request context. Request IDs
// and log fields are stored on the request, and gin only consults it when
// the engine was built with ContextWithFallback.
func requestContext(ctx context.Context) context.Context {
	c, ok := ctx.(*gin.Context)
	if !ok {
		return ctx
	}
	if c == nil || c.Request == nil {
		return nil
	}
	return c.Request.Context()
}
