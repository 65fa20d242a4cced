package clog

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
)

// leadingKeys are emitted before the other context attributes, in this order.
var leadingKeys = []string{CommandAttributeKey, TaskIDAttributeKey}

// AttributesHandler appends the attributes collected in the context to every
// record: command and task id first, the rest by key. An attribute already
// set on the record wins over the context value of the same key.
type AttributesHandler struct {
	handler slog.Handler
}

func NewAttributesHandler(handler slog.Handler) *AttributesHandler {
	return &AttributesHandler{
		handler: handler,
	}
}

func (h *AttributesHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *AttributesHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs := GetAttributes(ctx)
	if len(attrs) == 0 {
		return h.handler.Handle(ctx, record)
	}
	record.Attrs(func(a slog.Attr) bool {
		delete(attrs, a.Key)
		return true
	})
	record.AddAttrs(orderedAttrs(attrs)...)
	return h.handler.Handle(ctx, record)
}

func (h *AttributesHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AttributesHandler{
		handler: h.handler.WithAttrs(attrs),
	}
}

func (h *AttributesHandler) WithGroup(name string) slog.Handler {
	return &AttributesHandler{
		handler: h.handler.WithGroup(name),
	}
}

func orderedAttrs(m map[string]any) []slog.Attr {
	keys := slices.Sorted(maps.Keys(m))
	slices.SortStableFunc(keys, func(a, b string) int {
		return cmp.Compare(keyRank(a), keyRank(b))
	})
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, m[k]))
	}
	return attrs
}

func keyRank(key string) int {
	if i := slices.Index(leadingKeys, key); i >= 0 {
		return i
	}
	return len(leadingKeys)
}
