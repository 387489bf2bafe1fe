package api

import (
	"net/http"
	"testing"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) createBookmark(t *testing.T, userID, url, title string) domain.Bookmark {
	t.Helper()
	resp := ts.api.Post("/api/v1/bookmarks", ts.bearer(t, userID), map[string]any{
		"url":   url,
		"title": title,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decodeEnvelope[domain.Bookmark](t, resp).Data
}

func (ts *testServer) createTag(t *testing.T, userID, name string) domain.Tag {
	t.Helper()
	resp := ts.api.Post("/api/v1/tags", ts.bearer(t, userID), map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decodeEnvelope[domain.Tag](t, resp).Data
}

func TestCreateBookmark(t *testing.T) {
	ts := setupTestServer(t)

	b := ts.createBookmark(t, "u1", "https://go.dev", "  The Go Programming Language  ")
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "u1", b.UserID)
	assert.Equal(t, "The Go Programming Language", b.Title)
	assert.False(t, b.CreatedAt.IsZero())
}

func TestCreateBookmark_Validation(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"bad url", map[string]any{"url": "ftp://example.com", "title": "x"}},
		{"blank title", map[string]any{"url": "https://example.com", "title": "   "}},
		{"missing title", map[string]any{"url": "https://example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/bookmarks", ts.bearer(t, "u1"), tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

			env := decodeEnvelope[any](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, "VALIDATION", env.Code)
		})
	}
}

func TestListBookmarks_FilterAndTags(t *testing.T) {
	ts := setupTestServer(t)

	goDev := ts.createBookmark(t, "u1", "https://go.dev", "Go")
	ts.createBookmark(t, "u1", "https://rust-lang.org", "Rust")
	ts.createBookmark(t, "u2", "https://go.dev/blog", "Someone else's Go")
	lang := ts.createTag(t, "u1", "lang")

	resp := ts.api.Put("/api/v1/bookmarks/"+goDev.ID+"/tags/"+lang.ID, ts.bearer(t, "u1"))
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/bookmarks", ts.bearer(t, "u1"))
	require.Equal(t, http.StatusOK, resp.Code)
	all := decodeEnvelope[ListBookmarksResponse](t, resp).Data.Bookmarks
	require.Len(t, all, 2)
	assert.Equal(t, "Rust", all[0].Title, "newest first")

	resp = ts.api.Get("/api/v1/bookmarks?q=GO", ts.bearer(t, "u1"))
	found := decodeEnvelope[ListBookmarksResponse](t, resp).Data.Bookmarks
	require.Len(t, found, 1)
	assert.Equal(t, goDev.ID, found[0].ID)
	require.Len(t, found[0].Tags, 1)
	assert.Equal(t, "lang", found[0].Tags[0].Name)

	resp = ts.api.Get("/api/v1/bookmarks?tag="+lang.ID, ts.bearer(t, "u1"))
	tagged := decodeEnvelope[ListBookmarksResponse](t, resp).Data.Bookmarks
	require.Len(t, tagged, 1)
	assert.Equal(t, goDev.ID, tagged[0].ID)

	resp = ts.api.Get("/api/v1/bookmarks?q=rust&tag="+lang.ID, ts.bearer(t, "u1"))
	assert.Empty(t, decodeEnvelope[ListBookmarksResponse](t, resp).Data.Bookmarks)
}

func TestUpdateBookmark(t *testing.T) {
	ts := setupTestServer(t)
	b := ts.createBookmark(t, "u1", "https://go.dev", "Go")

	resp := ts.api.Patch("/api/v1/bookmarks/"+b.ID, ts.bearer(t, "u1"), map[string]any{"title": "Go home"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decodeEnvelope[domain.Bookmark](t, resp).Data
	assert.Equal(t, "Go home", updated.Title)
	assert.Equal(t, "https://go.dev", updated.URL)

	resp = ts.api.Patch("/api/v1/bookmarks/"+b.ID, ts.bearer(t, "u2"), map[string]any{"title": "Mine now"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope[any](t, resp).Code)
}

func TestDeleteBookmark(t *testing.T) {
	ts := setupTestServer(t)
	b := ts.createBookmark(t, "u1", "https://go.dev", "Go")

	resp := ts.api.Delete("/api/v1/bookmarks/"+b.ID, ts.bearer(t, "u2"))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Delete("/api/v1/bookmarks/"+b.ID, ts.bearer(t, "u1"))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Delete("/api/v1/bookmarks/"+b.ID, ts.bearer(t, "u1"))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestBookmarkTags_Idempotent(t *testing.T) {
	ts := setupTestServer(t)
	b := ts.createBookmark(t, "u1", "https://go.dev", "Go")
	tag := ts.createTag(t, "u1", "lang")
	path := "/api/v1/bookmarks/" + b.ID + "/tags/" + tag.ID

	assert.Equal(t, http.StatusNoContent, ts.api.Put(path, ts.bearer(t, "u1")).Code)
	assert.Equal(t, http.StatusNoContent, ts.api.Put(path, ts.bearer(t, "u1")).Code, "second apply is a no-op")

	resp := ts.api.Get("/api/v1/bookmark-tags?ids="+b.ID, ts.bearer(t, "u1"))
	require.Equal(t, http.StatusOK, resp.Code)
	links := decodeEnvelope[ListBookmarkTagsResponse](t, resp).Data.BookmarkTags
	assert.Equal(t, []domain.BookmarkTag{{BookmarkID: b.ID, TagID: tag.ID}}, links)

	resp = ts.api.Get("/api/v1/bookmark-tags", ts.bearer(t, "u2"))
	assert.Empty(t, decodeEnvelope[ListBookmarkTagsResponse](t, resp).Data.BookmarkTags, "links are private")

	assert.Equal(t, http.StatusNoContent, ts.api.Delete(path, ts.bearer(t, "u1")).Code)
	assert.Equal(t, http.StatusNoContent, ts.api.Delete(path, ts.bearer(t, "u1")).Code, "removing an absent link succeeds")

	resp = ts.api.Get("/api/v1/bookmark-tags", ts.bearer(t, "u1"))
	assert.Empty(t, decodeEnvelope[ListBookmarkTagsResponse](t, resp).Data.BookmarkTags)
}

func TestBookmarkTags_ForeignTag(t *testing.T) {
	ts := setupTestServer(t)
	b := ts.createBookmark(t, "u1", "https://go.dev", "Go")
	theirs := ts.createTag(t, "u2", "spy")

	resp := ts.api.Put("/api/v1/bookmarks/"+b.ID+"/tags/"+theirs.ID, ts.bearer(t, "u1"))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
