package api

import (
	"net/http"
	"testing"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollections_ShareAndView(t *testing.T) {
	ts := setupTestServer(t)
	one := ts.createBookmark(t, "u1", "https://one.example", "One")
	two := ts.createBookmark(t, "u1", "https://two.example", "Two")

	resp := ts.api.Post("/api/v1/collections", ts.bearer(t, "u1"), map[string]any{
		"name":         "Reading list",
		"description":  "for the weekend",
		"bookmark_ids": []string{two.ID, one.ID},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	view := decodeEnvelope[service.CollectionView](t, resp).Data
	assert.True(t, view.IsPublic)
	assert.Len(t, view.Slug, 8)
	assert.Equal(t, []string{two.ID, one.ID}, view.BookmarkIDs)

	// Public view needs no token.
	resp = ts.api.Get("/api/v1/shared/" + view.Slug)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	pub := decodeEnvelope[service.PublicCollection](t, resp).Data
	assert.Equal(t, "Reading list", pub.Name)
	require.NotNil(t, pub.Description)
	assert.Equal(t, "for the weekend", *pub.Description)
	require.Len(t, pub.Bookmarks, 2)
	assert.Equal(t, "Two", pub.Bookmarks[0].Title)
	assert.Equal(t, "One", pub.Bookmarks[1].Title)

	resp = ts.api.Get("/api/v1/collections", ts.bearer(t, "u1"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeEnvelope[ListCollectionsResponse](t, resp).Data.Collections, 1)

	resp = ts.api.Get("/api/v1/collections", ts.bearer(t, "u2"))
	assert.Empty(t, decodeEnvelope[ListCollectionsResponse](t, resp).Data.Collections)
}

func TestCollections_PrivateAndDelete(t *testing.T) {
	ts := setupTestServer(t)
	b := ts.createBookmark(t, "u1", "https://one.example", "One")

	resp := ts.api.Post("/api/v1/collections", ts.bearer(t, "u1"), map[string]any{
		"name":         "Hidden",
		"bookmark_ids": []string{b.ID},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	view := decodeEnvelope[service.CollectionView](t, resp).Data

	resp = ts.api.Patch("/api/v1/collections/"+view.ID, ts.bearer(t, "u1"), map[string]any{"is_public": false})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.False(t, decodeEnvelope[domain.SharedCollection](t, resp).Data.IsPublic)

	resp = ts.api.Get("/api/v1/shared/" + view.Slug)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope[any](t, resp).Code)

	resp = ts.api.Delete("/api/v1/collections/"+view.ID, ts.bearer(t, "u2"))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Delete("/api/v1/collections/"+view.ID, ts.bearer(t, "u1"))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/bookmarks", ts.bearer(t, "u1"))
	assert.Len(t, decodeEnvelope[ListBookmarksResponse](t, resp).Data.Bookmarks, 1, "bookmarks outlive the collection")
}

func TestCollections_RejectsForeignBookmarks(t *testing.T) {
	ts := setupTestServer(t)
	theirs := ts.createBookmark(t, "u2", "https://two.example", "Theirs")

	resp := ts.api.Post("/api/v1/collections", ts.bearer(t, "u1"), map[string]any{
		"name":         "Borrowed",
		"bookmark_ids": []string{theirs.ID},
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
