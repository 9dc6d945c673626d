// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/masq"
)

// Config selects the handler format and minimum level
type Config struct {
	Format string // "json" or "text"
	Level  string // "debug", "info", "warn", "error"
	Output io.Writer
}

// New creates a logger that redacts OAuth secrets before they are written.
// Struct fields tagged `masq:"secret"` and fields named AccessToken,
// RefreshToken or ClientSecret are masked wherever they appear.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
		ReplaceAttr: masq.New(
			masq.WithTag("secret"),
			masq.WithFieldName("AccessToken"),
			masq.WithFieldName("RefreshToken"),
			masq.WithFieldName("ClientSecret"),
		),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to slog.Level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
