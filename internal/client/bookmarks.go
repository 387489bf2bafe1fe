package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
)

// BookmarkPatch changes any subset of URL and title.
type BookmarkPatch struct {
	URL   *string `json:"url,omitempty"`
	Title *string `json:"title,omitempty"`
}

// SearchBookmarks lists the user's bookmarks with tags, narrowed server-side.
func (c *Client) SearchBookmarks(ctx context.Context, query string, tagIDs []string) ([]domain.BookmarkWithTags, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	if len(tagIDs) > 0 {
		q.Set("tag", strings.Join(tagIDs, ","))
	}

	var out struct {
		Bookmarks []domain.BookmarkWithTags `json:"bookmarks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/bookmarks", q, nil, &out); err != nil {
		return nil, err
	}
	if out.Bookmarks == nil {
		out.Bookmarks = []domain.BookmarkWithTags{}
	}
	return out.Bookmarks, nil
}

// ListBookmarks returns the caller's bookmarks newest first. The user is
// identified by the token; userID only satisfies reconcile.Loader.
func (c *Client) ListBookmarks(ctx context.Context, _ string) ([]domain.Bookmark, error) {
	list, err := c.SearchBookmarks(ctx, "", nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Bookmark, len(list))
	for i := range list {
		out[i] = list[i].Bookmark
	}
	return out, nil
}

// ListBookmarkTags returns associations for the given bookmarks.
func (c *Client) ListBookmarkTags(ctx context.Context, bookmarkIDs []string) ([]domain.BookmarkTag, error) {
	if len(bookmarkIDs) == 0 {
		return []domain.BookmarkTag{}, nil
	}
	q := url.Values{"ids": {strings.Join(bookmarkIDs, ",")}}

	var out struct {
		BookmarkTags []domain.BookmarkTag `json:"bookmark_tags"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/bookmark-tags", q, nil, &out); err != nil {
		return nil, err
	}
	if out.BookmarkTags == nil {
		out.BookmarkTags = []domain.BookmarkTag{}
	}
	return out.BookmarkTags, nil
}

// CreateBookmark saves a URL with a title.
func (c *Client) CreateBookmark(ctx context.Context, rawURL, title string) (*domain.Bookmark, error) {
	var b domain.Bookmark
	body := map[string]string{"url": rawURL, "title": title}
	if err := c.do(ctx, http.MethodPost, "/api/v1/bookmarks", nil, body, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBookmark patches a bookmark.
func (c *Client) UpdateBookmark(ctx context.Context, id string, patch BookmarkPatch) (*domain.Bookmark, error) {
	var b domain.Bookmark
	if err := c.do(ctx, http.MethodPatch, "/api/v1/bookmarks/"+url.PathEscape(id), nil, patch, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteBookmark removes a bookmark.
func (c *Client) DeleteBookmark(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/bookmarks/"+url.PathEscape(id), nil, nil, nil)
}

// AddTag applies a tag to a bookmark.
func (c *Client) AddTag(ctx context.Context, bookmarkID, tagID string) error {
	return c.do(ctx, http.MethodPut, bookmarkTagPath(bookmarkID, tagID), nil, nil, nil)
}

// RemoveTag detaches a tag from a bookmark.
func (c *Client) RemoveTag(ctx context.Context, bookmarkID, tagID string) error {
	return c.do(ctx, http.MethodDelete, bookmarkTagPath(bookmarkID, tagID), nil, nil, nil)
}

func bookmarkTagPath(bookmarkID, tagID string) string {
	return "/api/v1/bookmarks/" + url.PathEscape(bookmarkID) + "/tags/" + url.PathEscape(tagID)
}
