// Package logger builds the slog loggers used by the server and the CLI.
//
// The server logs JSON lines in production and a colored single-line format
// everywhere else. The CLI always uses the colored format on stderr.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Output formats accepted in Config.Format.
const (
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// Logger is the process-wide logger. Subsystems get children via Component.
type Logger struct {
	*slog.Logger
}

// Config selects where and how records are written. Zero values mean
// stdout, info level and a format chosen from Environment.
type Config struct {
	Writer      io.Writer
	Format      string
	Environment string
	Level       slog.Level
	AddSource   bool
}

func (c Config) format() string {
	switch {
	case c.Format != "":
		return c.Format
	case c.Environment == "production":
		return FormatJSON
	default:
		return FormatPretty
	}
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:       cfg.Level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: shortSource,
	}

	var h slog.Handler = NewPrettyHandler(w, opts)
	if cfg.format() == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	}
	return &Logger{Logger: slog.New(h)}
}

// shortSource trims source paths down to the file name.
func shortSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	if src, ok := a.Value.Any().(*slog.Source); ok {
		src.File = filepath.Base(src.File)
	}
	return a
}

// Discard returns a logger that writes nothing. Tests use it.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel reads LOG_LEVEL style names. Anything unrecognized is info.
func ParseLevel(s string) slog.Level {
	if lvl, ok := levels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// Component returns a child logger tagged with component=name.
func (l *Logger) Component(name string) *slog.Logger {
	return l.With("component", name)
}
