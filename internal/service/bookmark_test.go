package service

import (
	"strings"
	"testing"

	"github.com/smartbookmarks/smartbookmarks/internal/changefeed"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	domainerrors "github.com/smartbookmarks/smartbookmarks/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarkService_Create(t *testing.T) {
	env := setupTest(t)

	b, err := env.bookmarks.CreateBookmark(env.ctx, "u1", CreateBookmarkInput{
		URL:   "  https://github.com ",
		Title: " GitHub ",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://github.com", b.URL)
	assert.Equal(t, "GitHub", b.Title)
	assert.Equal(t, "u1", b.UserID)

	c := env.feed.last()
	assert.Equal(t, changefeed.TableBookmarks, c.Table)
	assert.Equal(t, changefeed.EventInsert, c.EventType)
	assert.Equal(t, "u1", c.OwnerID)
	got, err := c.Bookmark()
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestBookmarkService_CreateValidation(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name string
		in   CreateBookmarkInput
	}{
		{"blank title", CreateBookmarkInput{URL: "https://go.dev", Title: "  "}},
		{"long title", CreateBookmarkInput{URL: "https://go.dev", Title: strings.Repeat("t", domain.MaxTitleLength+1)}},
		{"bad url", CreateBookmarkInput{URL: "go.dev", Title: "Go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.bookmarks.CreateBookmark(env.ctx, "u1", tt.in)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
	assert.Empty(t, env.feed.all(), "rejected input publishes nothing")
}

func TestBookmarkService_UpdateKeepsOwnership(t *testing.T) {
	env := setupTest(t)
	b, err := env.bookmarks.CreateBookmark(env.ctx, "u1", CreateBookmarkInput{URL: "https://go.dev", Title: "Go"})
	require.NoError(t, err)

	title := "The Go Programming Language"
	updated, err := env.bookmarks.UpdateBookmark(env.ctx, "u1", b.ID, UpdateBookmarkInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "https://go.dev", updated.URL)

	c := env.feed.last()
	assert.Equal(t, changefeed.EventUpdate, c.EventType)
	assert.NotEmpty(t, c.Old)

	_, err = env.bookmarks.UpdateBookmark(env.ctx, "intruder", b.ID, UpdateBookmarkInput{Title: &title})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound, "other users cannot see the bookmark")

	empty := ""
	_, err = env.bookmarks.UpdateBookmark(env.ctx, "u1", b.ID, UpdateBookmarkInput{Title: &empty})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestBookmarkService_Delete(t *testing.T) {
	env := setupTest(t)
	b, err := env.bookmarks.CreateBookmark(env.ctx, "u1", CreateBookmarkInput{URL: "https://go.dev", Title: "Go"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.bookmarks.DeleteBookmark(env.ctx, "u2", b.ID), domainerrors.ErrNotFound)
	require.NoError(t, env.bookmarks.DeleteBookmark(env.ctx, "u1", b.ID))

	c := env.feed.last()
	assert.Equal(t, changefeed.EventDelete, c.EventType)
	assert.Empty(t, c.New)
	old, err := c.Bookmark()
	require.NoError(t, err)
	assert.Equal(t, b.ID, old.ID)

	assert.ErrorIs(t, env.bookmarks.DeleteBookmark(env.ctx, "u1", b.ID), domainerrors.ErrNotFound)
}

func TestBookmarkService_TagsAndListing(t *testing.T) {
	env := setupTest(t)

	gh, err := env.bookmarks.CreateBookmark(env.ctx, "u1", CreateBookmarkInput{URL: "https://github.com", Title: "GitHub"})
	require.NoError(t, err)
	gd, err := env.bookmarks.CreateBookmark(env.ctx, "u1", CreateBookmarkInput{URL: "https://go.dev", Title: "Go docs"})
	require.NoError(t, err)
	work, err := env.tags.CreateTag(env.ctx, "u1", CreateTagInput{Name: "work"})
	require.NoError(t, err)

	require.NoError(t, env.bookmarks.AddTag(env.ctx, "u1", gd.ID, work.ID))
	published := len(env.feed.all())
	require.NoError(t, env.bookmarks.AddTag(env.ctx, "u1", gd.ID, work.ID), "duplicate link is success")
	assert.Len(t, env.feed.all(), published, "duplicate link publishes nothing")
	assert.Equal(t, changefeed.TableBookmarkTags, env.feed.last().Table)

	all, err := env.bookmarks.ListBookmarks(env.ctx, "u1", "", nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, gd.ID, all[0].ID, "newest first")
	assert.True(t, all[0].HasTag(work.ID))
	assert.Empty(t, all[1].Tags)

	hub, err := env.bookmarks.ListBookmarks(env.ctx, "u1", "HUB", nil)
	require.NoError(t, err)
	require.Len(t, hub, 1)
	assert.Equal(t, gh.ID, hub[0].ID)

	tagged, err := env.bookmarks.ListBookmarks(env.ctx, "u1", "", []string{work.ID})
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, gd.ID, tagged[0].ID)

	links, err := env.bookmarks.ListBookmarkTags(env.ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.BookmarkTag{{BookmarkID: gd.ID, TagID: work.ID}}, links)

	foreign, err := env.bookmarks.ListBookmarkTags(env.ctx, "u2", []string{gd.ID})
	require.NoError(t, err)
	assert.Empty(t, foreign)

	require.NoError(t, env.bookmarks.RemoveTag(env.ctx, "u1", gd.ID, work.ID))
	require.NoError(t, env.bookmarks.RemoveTag(env.ctx, "u1", gd.ID, work.ID), "removing twice is success")
}

func TestBookmarkService_AddTagRejectsForeignTag(t *testing.T) {
	env := setupTest(t)
	b, err := env.bookmarks.CreateBookmark(env.ctx, "u1", CreateBookmarkInput{URL: "https://go.dev", Title: "Go"})
	require.NoError(t, err)
	theirs, err := env.tags.CreateTag(env.ctx, "u2", CreateTagInput{Name: "secret"})
	require.NoError(t, err)

	err = env.bookmarks.AddTag(env.ctx, "u1", b.ID, theirs.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
