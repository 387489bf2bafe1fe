package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/smartbookmarks/smartbookmarks/internal/changefeed"
	"github.com/smartbookmarks/smartbookmarks/internal/store/sqlite"
	"github.com/stretchr/testify/require"
)

// recordingFeed captures published changes.
type recordingFeed struct {
	mu      sync.Mutex
	changes []changefeed.Change
}

func (f *recordingFeed) Publish(c changefeed.Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, c)
}

func (f *recordingFeed) all() []changefeed.Change {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]changefeed.Change(nil), f.changes...)
}

func (f *recordingFeed) last() changefeed.Change {
	all := f.all()
	if len(all) == 0 {
		return changefeed.Change{}
	}
	return all[len(all)-1]
}

type testEnv struct {
	store     *sqlite.Store
	feed      *recordingFeed
	bookmarks *BookmarkService
	tags      *TagService
	sharing   *SharingService
	ctx       context.Context
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	logger := slog.New(slog.DiscardHandler)
	feed := &recordingFeed{}

	return &testEnv{
		store:     s,
		feed:      feed,
		bookmarks: NewBookmarkService(s, feed, logger),
		tags:      NewTagService(s, feed, logger),
		sharing:   NewSharingService(s, feed, logger),
		ctx:       context.Background(),
	}
}
