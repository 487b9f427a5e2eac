package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// MultiHandler sends each record to the console and the journal. A record
// is enabled when any target wants it, and every target is still asked
// again before it handles, since their levels differ per module.
type MultiHandler struct {
	targets []slog.Handler
}

func NewMultiHandler(targets ...slog.Handler) *MultiHandler {
	return &MultiHandler{targets: slices.Clip(targets)}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(m.targets, func(h slog.Handler) bool {
		return h.Enabled(ctx, level)
	})
}

// Handle gives every enabled target its own copy of r. A failing journal
// does not keep the line off the console; errors come back joined.
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs error
	for _, h := range m.targets {
		if h.Enabled(ctx, r.Level) {
			errs = errors.Join(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errs
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m *MultiHandler) derive(fn func(slog.Handler) slog.Handler) *MultiHandler {
	targets := make([]slog.Handler, len(m.targets))
	for i, h := range m.targets {
		targets[i] = fn(h)
	}
	return &MultiHandler{targets: targets}
}
