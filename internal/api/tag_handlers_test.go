package api

import (
	"net/http"
	"testing"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTags_CRUD(t *testing.T) {
	ts := setupTestServer(t)

	work := ts.createTag(t, "u1", "work")
	assert.Equal(t, domain.DefaultTagColor(), work.Color)
	ts.createTag(t, "u1", "alpha")

	resp := ts.api.Get("/api/v1/tags", ts.bearer(t, "u1"))
	require.Equal(t, http.StatusOK, resp.Code)
	tags := decodeEnvelope[ListTagsResponse](t, resp).Data.Tags
	require.Len(t, tags, 2)
	assert.Equal(t, "alpha", tags[0].Name, "ordered by name")

	resp = ts.api.Patch("/api/v1/tags/"+work.ID, ts.bearer(t, "u1"), map[string]any{"color": "#EF4444"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decodeEnvelope[domain.Tag](t, resp).Data
	assert.Equal(t, "work", updated.Name)
	assert.Equal(t, "#EF4444", updated.Color)

	resp = ts.api.Delete("/api/v1/tags/"+work.ID, ts.bearer(t, "u2"))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Delete("/api/v1/tags/"+work.ID, ts.bearer(t, "u1"))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/tags", ts.bearer(t, "u2"))
	assert.Empty(t, decodeEnvelope[ListTagsResponse](t, resp).Data.Tags)
}

func TestCreateTag_Validation(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/tags", ts.bearer(t, "u1"), map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decodeEnvelope[any](t, resp).Code)
}

func TestDeleteTag_RemovesFromBookmarks(t *testing.T) {
	ts := setupTestServer(t)
	b := ts.createBookmark(t, "u1", "https://go.dev", "Go")
	tag := ts.createTag(t, "u1", "lang")
	require.Equal(t, http.StatusNoContent, ts.api.Put("/api/v1/bookmarks/"+b.ID+"/tags/"+tag.ID, ts.bearer(t, "u1")).Code)

	require.Equal(t, http.StatusNoContent, ts.api.Delete("/api/v1/tags/"+tag.ID, ts.bearer(t, "u1")).Code)

	resp := ts.api.Get("/api/v1/bookmarks", ts.bearer(t, "u1"))
	list := decodeEnvelope[ListBookmarksResponse](t, resp).Data.Bookmarks
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Tags)
}
