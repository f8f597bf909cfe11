package internal

import (
	"io"
	"log/slog"
	"time"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// NewLogger builds the process logger: text in dev, JSON in prod.
// attrs are attached to every record, e.g. "service", "cartsync".
func NewLogger(w io.Writer, env string, level string, attrs ...any) *slog.Logger {
	lvl, ok := logLevels[level]
	if !ok {
		slog.Default().Warn("Invalid log level. Using default level: info", slog.String("value", level))
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if env == "prod" {
		opts.ReplaceAttr = rfc3339Time
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With(attrs...)
}

func rfc3339Time(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339Nano))
	}
	return a
}
