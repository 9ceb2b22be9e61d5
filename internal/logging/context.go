// Package logging carries rule-set correlation IDs through context.Context
// and injects them into slog records.
package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	ruleSetKey ctxKey = iota
	ruleKey
	objectKey
)

// WithRuleSet returns a context carrying the rule set name.
func WithRuleSet(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ruleSetKey, name)
}

// WithRule returns a context carrying the rule name.
func WithRule(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ruleKey, name)
}

// WithObject returns a context carrying the index of the selected context object.
func WithObject(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, objectKey, index)
}

// RuleSet extracts the rule set name, or "" if absent.
func RuleSet(ctx context.Context) string {
	v, _ := ctx.Value(ruleSetKey).(string)
	return v
}

// Rule extracts the rule name, or "" if absent.
func Rule(ctx context.Context) string {
	v, _ := ctx.Value(ruleKey).(string)
	return v
}

// Object extracts the object index and whether one is set.
func Object(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(objectKey).(int)
	return v, ok
}

func attrs(ctx context.Context) []slog.Attr {
	var out []slog.Attr
	if v := RuleSet(ctx); v != "" {
		out = append(out, slog.String("rule_set", v))
	}
	if v := Rule(ctx); v != "" {
		out = append(out, slog.String("rule", v))
	}
	if v, ok := Object(ctx); ok {
		out = append(out, slog.Int("object", v))
	}
	return out
}

// LogWith returns a logger enriched with correlation IDs from the context.
// Only values present are added.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	for _, a := range attrs(ctx) {
		logger = logger.With(a)
	}
	return logger
}

// CorrelationHandler wraps an slog.Handler and adds the correlation IDs of
// the record's context. Pair it with logger.DebugContext(ctx, ...).
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(attrs(ctx)...)
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else is info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
