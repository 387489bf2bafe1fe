package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "production", Level: slog.LevelInfo})

	log.Info("bookmark created", "bookmark_id", "bm-1")

	assert.Contains(t, buf.String(), `"msg":"bookmark created"`)
	assert.Contains(t, buf.String(), `"bookmark_id":"bm-1"`)
}

func TestNew_PrettyInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "development", Level: slog.LevelDebug})

	log.Debug("relay opened", "channel", "bookmarks-sync")

	out := buf.String()
	assert.Contains(t, out, "DBG")
	assert.Contains(t, out, "relay opened")
	assert.Contains(t, out, "channel=bookmarks-sync")
	assert.False(t, strings.HasPrefix(out, "{"))
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "json", Level: slog.LevelWarn})

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestPrettyHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))

	log.WithGroup("feed").With("table", "bookmarks").Info("event", slog.Group("row", slog.String("id", "b1")))

	out := buf.String()
	assert.Contains(t, out, "feed.table=bookmarks")
	assert.Contains(t, out, "feed.row.id=b1")
}

func TestPrettyHandler_QuotesSpaces(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))

	log.Info("fetch", "title", "Hello World")

	assert.Contains(t, buf.String(), `title="Hello World"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatJSON})

	log.Component("relay").Info("ready")
	log.Component("changefeed").With("user_id", "u1").Warn("lagging")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"component":"relay"`)
	assert.Contains(t, lines[1], `"component":"changefeed"`)
	assert.Contains(t, lines[1], `"user_id":"u1"`)
}

func TestNew_AddSourceTrimsPath(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatJSON, AddSource: true})

	log.Info("with source")

	assert.Contains(t, buf.String(), `"file":"logger_test.go"`)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("dropped") })
}
