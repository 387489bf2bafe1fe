package changefeed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	mu      sync.Mutex
	changes []Change
}

func (s *sink) add(c Change) {
	s.mu.Lock()
	s.changes = append(s.changes, c)
	s.mu.Unlock()
}

func (s *sink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.changes)
}

func (s *sink) all() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Change(nil), s.changes...)
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.Discard(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	hub.Start(ctx)
	t.Cleanup(func() {
		_ = hub.Shutdown(context.Background())
		cancel()
	})
	return hub
}

func bookmarkChange(t *testing.T, eventType EventType, b domain.Bookmark) Change {
	t.Helper()
	var c Change
	var err error
	if eventType == EventDelete {
		c, err = NewChange(TableBookmarks, eventType, b.UserID, nil, b)
	} else {
		c, err = NewChange(TableBookmarks, eventType, b.UserID, b, nil)
	}
	require.NoError(t, err)
	return c
}

func TestNewChange_RowDecoding(t *testing.T) {
	b := domain.Bookmark{ID: "bm-1", UserID: "u1", Title: "Go", URL: "https://go.dev"}

	ins := bookmarkChange(t, EventInsert, b)
	got, err := ins.Bookmark()
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Title)
	assert.Equal(t, domain.ActionInsert, ins.EventType.Action())

	del := bookmarkChange(t, EventDelete, b)
	assert.Empty(t, del.New)
	got, err = del.Bookmark()
	require.NoError(t, err, "delete falls back to the old row")
	assert.Equal(t, "bm-1", got.ID)

	_, err = Change{Table: TableTags, EventType: EventDelete}.Tag()
	assert.Error(t, err)
}

func TestHub_DeliversByTable(t *testing.T) {
	hub := startHub(t)

	var bookmarks, tags sink
	_, err := hub.Subscribe(context.Background(), TableBookmarks, bookmarks.add)
	require.NoError(t, err)
	_, err = hub.Subscribe(context.Background(), TableTags, tags.add)
	require.NoError(t, err)

	hub.Publish(bookmarkChange(t, EventInsert, domain.Bookmark{ID: "1", UserID: "u1"}))

	require.Eventually(t, func() bool { return bookmarks.len() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, tags.len())
}

func TestHub_SubscribeOwnerFilters(t *testing.T) {
	hub := startHub(t)

	var mine sink
	_, err := hub.SubscribeOwner(context.Background(), TableBookmarks, "u1", mine.add)
	require.NoError(t, err)

	hub.Publish(bookmarkChange(t, EventInsert, domain.Bookmark{ID: "other", UserID: "u2"}))
	hub.Publish(bookmarkChange(t, EventInsert, domain.Bookmark{ID: "own", UserID: "u1"}))

	require.Eventually(t, func() bool { return mine.len() == 1 }, time.Second, 5*time.Millisecond)
	b, err := mine.all()[0].Bookmark()
	require.NoError(t, err)
	assert.Equal(t, "own", b.ID)

	_, err = hub.SubscribeOwner(context.Background(), TableBookmarks, "", mine.add)
	assert.Error(t, err)
}

func TestHub_UnsubscribeIdempotent(t *testing.T) {
	hub := startHub(t)

	var got sink
	sub, err := hub.Subscribe(context.Background(), TableBookmarks, got.add)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.SubscriptionCount())

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, sub.Unsubscribe())
	assert.Zero(t, hub.SubscriptionCount())

	hub.Publish(bookmarkChange(t, EventInsert, domain.Bookmark{ID: "1", UserID: "u1"}))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, got.len())
}

func TestHub_ContextCancelUnsubscribes(t *testing.T) {
	hub := startHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := hub.Subscribe(ctx, TableBookmarks, func(Change) {})
	require.NoError(t, err)

	cancel()
	require.Eventually(t, func() bool { return hub.SubscriptionCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_RejectsUnknownTable(t *testing.T) {
	hub := startHub(t)

	_, err := hub.Subscribe(context.Background(), Table("users"), func(Change) {})
	assert.Error(t, err)
}

func TestHub_ShutdownDrainsAndCloses(t *testing.T) {
	hub := NewHub(logger.Discard(), nil)

	var got sink
	_, err := hub.Subscribe(context.Background(), TableBookmarks, got.add)
	require.NoError(t, err)

	// Not started: changes sit in the queue until Shutdown drains them.
	hub.Publish(bookmarkChange(t, EventInsert, domain.Bookmark{ID: "1", UserID: "u1"}))

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.SubscriptionCount())

	assert.NotPanics(t, func() {
		hub.Publish(bookmarkChange(t, EventInsert, domain.Bookmark{ID: "2", UserID: "u1"}))
	})
	_, err = hub.Subscribe(context.Background(), TableBookmarks, got.add)
	assert.Error(t, err)
}

func TestHub_ShutdownRightAfterStart(t *testing.T) {
	for range 50 {
		hub := NewHub(logger.Discard(), nil)
		ctx, cancel := context.WithCancel(context.Background())
		hub.Start(ctx)

		var got sink
		_, err := hub.Subscribe(ctx, TableBookmarks, got.add)
		require.NoError(t, err)
		hub.Publish(bookmarkChange(t, EventInsert, domain.Bookmark{ID: "bm-1", UserID: "u1"}))

		require.NoError(t, hub.Shutdown(context.Background()))
		cancel()
	}
}
