package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedBookmark inserts a bookmark created at the given offset from a fixed base time.
func seedBookmark(t *testing.T, s *Store, id, userID string, offset time.Duration) *domain.Bookmark {
	t.Helper()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := &domain.Bookmark{
		ID:        id,
		UserID:    userID,
		URL:       "https://example.com/" + id,
		Title:     "Bookmark " + id,
		CreatedAt: base.Add(offset),
	}
	if err := s.CreateBookmark(context.Background(), b); err != nil {
		t.Fatalf("CreateBookmark(%s): %v", id, err)
	}
	return b
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.CreateBookmark(context.Background(), &domain.Bookmark{UserID: "u1", URL: "https://go.dev", Title: "Go"}); err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}
	s.Close()

	s, err = Open(dbPath, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.ListBookmarks(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListBookmarks: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 bookmark after reopen, got %d", len(got))
	}
}

func TestFormatTime_SortsChronologically(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC)
	b := a.Add(500 * time.Millisecond)

	if formatTime(a) >= formatTime(b) {
		t.Errorf("formatTime(%v) = %q should sort before %q", a, formatTime(a), formatTime(b))
	}

	parsed, err := parseTime(formatTime(b))
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	if !parsed.Equal(b) {
		t.Errorf("round trip: got %v, want %v", parsed, b)
	}
}
