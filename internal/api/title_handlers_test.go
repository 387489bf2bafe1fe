package api

import (
	"net/http"
	"testing"

	"github.com/smartbookmarks/smartbookmarks/internal/titlefetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchTitle(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/fetch-title", ts.bearer(t, "u1"), map[string]any{"url": "https://www.example.com/page"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	r := decodeEnvelope[titlefetch.Result](t, resp).Data
	assert.Equal(t, "Title of example.com", r.Title)
	assert.Equal(t, titlefetch.SourceFetched, r.Source)
}

func TestFetchTitle_InvalidURL(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/fetch-title", ts.bearer(t, "u1"), map[string]any{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	env := decodeEnvelope[any](t, resp)
	assert.Equal(t, "VALIDATION", env.Code)
	assert.Equal(t, "Invalid URL format", env.Error)
}

func TestFetchTitle_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/fetch-title", map[string]any{"url": "https://example.com"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Empty(t, ts.titles.calls)
}
