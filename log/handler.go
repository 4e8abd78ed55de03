// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// swapHandler forwards records to a replaceable handler.
// Attributes and groups added through With are applied to the current handler,
// and the result is kept until another handler is installed.
type swapHandler struct {
	current *atomic.Pointer[slog.Handler]
	ops     []func(slog.Handler) slog.Handler
	derived atomic.Pointer[derivedHandler]
}

type derivedHandler struct {
	base    *slog.Handler
	handler slog.Handler
}

func (h *swapHandler) set(inner slog.Handler) {
	if h.current == nil {
		h.current = &atomic.Pointer[slog.Handler]{}
	}
	h.current.Store(&inner)
}

func (h *swapHandler) resolve() slog.Handler {
	base := h.current.Load()
	if len(h.ops) == 0 {
		return *base
	}
	if d := h.derived.Load(); d != nil && d.base == base {
		return d.handler
	}
	inner := *base
	for _, op := range h.ops {
		inner = op(inner)
	}
	h.derived.Store(&derivedHandler{base: base, handler: inner})
	return inner
}

func (h *swapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (*h.current.Load()).Enabled(ctx, level)
}

func (h *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.resolve().Handle(ctx, r)
}

func (h *swapHandler) derive(op func(slog.Handler) slog.Handler) *swapHandler {
	ops := make([]func(slog.Handler) slog.Handler, len(h.ops), len(h.ops)+1)
	copy(ops, h.ops)
	return &swapHandler{
		current: h.current,
		ops:     append(ops, op),
	}
}

func (h *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(inner slog.Handler) slog.Handler { return inner.WithAttrs(attrs) })
}

func (h *swapHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(inner slog.Handler) slog.Handler { return inner.WithGroup(name) })
}

// levelHandler filters records by a level that may change while the process runs.
type levelHandler struct {
	inner slog.Handler
	lvl   slog.Leveler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.lvl.Level() && h.inner.Enabled(ctx, level)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.lvl.Level() {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{inner: h.inner.WithAttrs(attrs), lvl: h.lvl}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{inner: h.inner.WithGroup(name), lvl: h.lvl}
}
