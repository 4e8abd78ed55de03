// Copyright (c) 2025 The Rainbow developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is the structured logger used across rainbow, built on go-ethereum's slog-based log package.
//
// Loggers created by WithContext follow the root handler, so package level loggers
// pick up the handler installed by the daemon at startup.
package log

import (
	"io"
	"log/slog"

	gethlog "github.com/ethereum/go-ethereum/log"
)

type Logger = gethlog.Logger

const (
	LevelTrace = gethlog.LevelTrace
	LevelDebug = gethlog.LevelDebug
	LevelInfo  = gethlog.LevelInfo
	LevelWarn  = gethlog.LevelWarn
	LevelError = gethlog.LevelError
	LevelCrit  = gethlog.LevelCrit
)

var (
	root    = &swapHandler{}
	rootLog = gethlog.NewLogger(root)
)

func init() {
	root.set(gethlog.DiscardHandler())
}

// SetDefault installs h as the handler of all loggers in the process.
func SetDefault(h slog.Handler) {
	root.set(h)
}

// Root returns the root logger.
func Root() Logger {
	return rootLog
}

// WithContext returns a logger carrying the given key/value pairs.
func WithContext(ctx ...any) Logger {
	return rootLog.With(ctx...)
}

func Trace(msg string, ctx ...any) { rootLog.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { rootLog.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { rootLog.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { rootLog.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { rootLog.Error(msg, ctx...) }

// NewTerminalHandler returns a human readable handler filtering by lvl.
// lvl is read on every record, so a *slog.LevelVar adjusts the output at runtime.
func NewTerminalHandler(w io.Writer, lvl slog.Leveler, useColor bool) slog.Handler {
	return &levelHandler{
		inner: gethlog.NewTerminalHandlerWithLevel(w, LevelTrace, useColor),
		lvl:   lvl,
	}
}

// NewJSONHandler returns a handler writing one JSON object per record at or above lvl.
func NewJSONHandler(w io.Writer, lvl slog.Leveler) slog.Handler {
	return &levelHandler{
		inner: gethlog.JSONHandlerWithLevel(w, LevelTrace),
		lvl:   lvl,
	}
}

// DiscardHandler returns a no-op handler.
func DiscardHandler() slog.Handler {
	return gethlog.DiscardHandler()
}

// FromLegacyLevel converts the 0 (crit) to 5 (trace) verbosity scale into a slog level.
func FromLegacyLevel(verbosity int) slog.Level {
	return gethlog.FromLegacyLevel(verbosity)
}
