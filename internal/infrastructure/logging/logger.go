package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/relaycycle/internal/infrastructure/config"
)

// ServiceName is the "service" field on every entry.
const ServiceName = "relaycycle"

// Logger is a slog.Logger preloaded with service and version fields.
type Logger struct {
	*slog.Logger
}

// New builds a logger writing to the configured stream (stdout unless
// output is "stderr").
func New(cfg config.LoggingConfig, version string) *Logger {
	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}
	return NewWithWriter(out, cfg, version)
}

// NewWithWriter is New with an explicit destination, used by tests to
// capture entries. Format "text" selects slog's text handler; anything
// else is JSON.
func NewWithWriter(w io.Writer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	}
	h = h.WithAttrs([]slog.Attr{
		slog.String("service", ServiceName),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(h)}
}

// parseLevel accepts debug, info, warn (or warning) and error in any case.
// Anything else is info.
func parseLevel(s string) slog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil || s == "" {
		return slog.LevelInfo
	}
	return lvl
}

// With returns a child logger carrying args on every entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component tags entries with the emitting subsystem, e.g. "scheduler".
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Default is the pre-config logger: JSON at info on stdout.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}
