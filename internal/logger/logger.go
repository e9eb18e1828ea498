// Package logger configures the application slog logger and carries request-scoped loggers
// through a context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// LevelNone disables logging.
const LevelNone = slog.Level(100)

// ParseLogLevel maps debug, info, warn, error and none to a level. Unknown values map to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none", "off":
		return LevelNone
	default:
		return slog.LevelInfo
	}
}

// InitLogger returns a colourised text logger in dev and a JSON logger elsewhere,
// writing to stderr.
func InitLogger(level slog.Level, environment string) *slog.Logger {
	return NewLogger(os.Stderr, level, environment)
}

// NewLogger is InitLogger with an explicit writer.
func NewLogger(w io.Writer, level slog.Level, environment string) *slog.Logger {
	if level >= LevelNone {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: LevelNone}))
	}

	var handler slog.Handler
	if environment == "dev" {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

type contextKey struct{}

// requestLog holds the request logger and attributes collected while serving the request.
type requestLog struct {
	logger *slog.Logger

	mu    sync.Mutex
	attrs []slog.Attr
}

// ContextWithRequestLogger returns ctx carrying l as the request logger.
func ContextWithRequestLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, &requestLog{logger: l})
}

// ContextRequestLogger returns the request logger stored in ctx, or slog.Default.
func ContextRequestLogger(ctx context.Context) *slog.Logger {
	if rl, ok := ctx.Value(contextKey{}).(*requestLog); ok && rl.logger != nil {
		return rl.logger
	}
	return slog.Default()
}

// ContextWithLogAttrs records attrs for the final request log line. It is a no-op when ctx
// carries no request logger.
func ContextWithLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	rl, ok := ctx.Value(contextKey{}).(*requestLog)
	if !ok {
		return
	}
	rl.mu.Lock()
	rl.attrs = append(rl.attrs, attrs...)
	rl.mu.Unlock()
}

// ContextLogAttrs returns the attributes recorded with ContextWithLogAttrs.
func ContextLogAttrs(ctx context.Context) []slog.Attr {
	rl, ok := ctx.Value(contextKey{}).(*requestLog)
	if !ok {
		return nil
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return append([]slog.Attr(nil), rl.attrs...)
}
