package logging

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"math/rand/v2"
)

type contextKey struct{}

// contextHandler appends attributes stored in the context to every record.
type contextHandler struct {
	h slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(contextKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.h.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{h: h.h.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{h: h.h.WithGroup(name)}
}

func (h *contextHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.h.Enabled(ctx, l)
}

func PopulateContext(ctx context.Context, attrs ...slog.Attr) context.Context {
	if old, ok := ctx.Value(contextKey{}).([]slog.Attr); ok {
		attrs = append(append([]slog.Attr{}, old...), attrs...)
	}
	return context.WithValue(ctx, contextKey{}, attrs)
}

// PopulateContextID attaches a random hex identifier under key.
func PopulateContextID(ctx context.Context, key string) context.Context {
	return PopulateContext(ctx, slog.String(key, makeContextID()))
}

func makeContextID() string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], rand.Uint64())
	return hex.EncodeToString(b[:])
}
