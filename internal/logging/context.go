package logging

import (
	"context"
	"log/slog"
)

type contextKey int

const (
	runIDKey contextKey = iota
	kindKey
	definitionKey
	stageKey
)

var contextFieldKeys = map[contextKey]string{
	runIDKey:      FieldRunID,
	kindKey:       FieldKind,
	definitionKey: FieldDefinition,
	stageKey:      FieldStage,
}

// WithRunID annotates ctx with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return withValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, runIDKey)
}

// WithDefinition annotates ctx with a definition's kind and name.
func WithDefinition(ctx context.Context, kind, name string) context.Context {
	return withValue(withValue(ctx, kindKey, kind), definitionKey, name)
}

// WithStage annotates ctx with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// ContextFields returns the run, kind, definition and stage attributes
// carried by ctx, in console order.
func ContextFields(ctx context.Context) []slog.Attr {
	var fields []slog.Attr
	for _, key := range []contextKey{runIDKey, kindKey, definitionKey, stageKey} {
		if v, ok := stringValue(ctx, key); ok {
			fields = append(fields, slog.String(contextFieldKeys[key], v))
		}
	}
	return fields
}

// WithContext binds the fields carried by ctx to logger. Records logged
// with a *Context method get the same fields from contextHandler without
// this call.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return logger.With(args...)
}

// contextHandler adds context fields to each record unless the logger
// already has them bound or the record sets them itself.
type contextHandler struct {
	inner slog.Handler
	bound map[string]struct{}
}

func newContextHandler(inner slog.Handler) *contextHandler {
	return &contextHandler{inner: inner, bound: map[string]struct{}{}}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return h.inner.Handle(ctx, record)
	}
	record = record.Clone()
	present := make(map[string]struct{}, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		present[a.Key] = struct{}{}
		return true
	})
	for _, f := range fields {
		_, inRecord := present[f.Key]
		_, isBound := h.bound[f.Key]
		if !inRecord && !isBound {
			record.AddAttrs(f)
		}
	}
	return h.inner.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make(map[string]struct{}, len(h.bound)+len(attrs))
	for k := range h.bound {
		bound[k] = struct{}{}
	}
	for _, a := range attrs {
		bound[a.Key] = struct{}{}
	}
	return &contextHandler{inner: h.inner.WithAttrs(attrs), bound: bound}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name), bound: h.bound}
}
