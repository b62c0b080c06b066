// Package logging builds slog loggers in the two shapes the CLIs use:
// a plain writer-backed logger and a rotating file logger. A context
// handler carries per-run attributes through context.Context.
package logging

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger returns a slog.Logger writing to w, as JSON or text, filtered
// to level.
func Logger(w io.Writer, json bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(&ctxHandler{Handler: h})
}

// FileLogger returns a slog.Logger writing to path behind size-based
// rotation.
func FileLogger(path string, json bool, level slog.Level) *slog.Logger {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	return Logger(w, json, level)
}
