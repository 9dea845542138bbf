// Package logger configures the slog loggers used by actiond and carries
// request-scoped loggers through contexts.
package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// EnvVarLogLevel selects the level when no config file sets one.
const EnvVarLogLevel = "LOG_LEVEL"

// New returns a JSON logger writing to w at level. Every record carries the
// app name and version; debug records also carry their source position.
func New(w io.Writer, app, version, level string) *slog.Logger {
	lev := ParseLogLevel(level)

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lev,
		AddSource: lev <= slog.LevelDebug,
	})

	return slog.New(h).With("app", app, "version", version)
}

// NewLogLogger adapts a stderr text handler to a *log.Logger for APIs such
// as http.Server.ErrorLog that still want one.
func NewLogLogger(level slog.Level, withSource bool) *log.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: withSource,
	})
	return slog.NewLogLogger(h, level)
}

// SetDefaultLogger installs a stderr logger at the level named by LOG_LEVEL.
func SetDefaultLogger(app, version string) {
	SetDefaultLoggerWithLevel(app, version, os.Getenv(EnvVarLogLevel))
}

// SetDefaultLoggerWithLevel installs a stderr logger at level.
func SetDefaultLoggerWithLevel(app, version, level string) {
	slog.SetDefault(New(os.Stderr, app, version, level))
}

// ParseLogLevel maps debug, warn (or warning) and error to their slog
// levels, ignoring case and surrounding space. Anything else is info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger carried by ctx, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
