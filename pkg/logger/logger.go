// Package logger provides the structured logging facade used across the
// codebase, backed by the standard library slog.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Logger is the leveled, structured logging interface every component takes.
// Key/value pairs follow the slog convention.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Fatal(msg string, keysAndValues ...any)
	WithFields(fields map[string]any) Logger
}

// Config controls level and output format.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// New creates a logger writing to stderr.
func New(cfg Config) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return &slogLogger{sl: slog.New(handler)}
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() Logger {
	return &slogLogger{sl: slog.New(discardHandler{})}
}

type slogLogger struct {
	sl *slog.Logger
}

func (l *slogLogger) Debug(msg string, kv ...any) { l.sl.Debug(msg, kv...) }
func (l *slogLogger) Info(msg string, kv ...any)  { l.sl.Info(msg, kv...) }
func (l *slogLogger) Warn(msg string, kv ...any)  { l.sl.Warn(msg, kv...) }
func (l *slogLogger) Error(msg string, kv ...any) { l.sl.Error(msg, kv...) }

func (l *slogLogger) Fatal(msg string, kv ...any) {
	l.sl.Error(msg, kv...)
	os.Exit(1)
}

func (l *slogLogger) WithFields(fields map[string]any) Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &slogLogger{sl: l.sl.With(args...)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
