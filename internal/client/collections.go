package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
)

// Collection is a shared collection with its member IDs in display order.
type Collection struct {
	domain.SharedCollection
	BookmarkIDs []string `json:"bookmark_ids"`
}

// PublicCollection is the anonymous view of a share link.
type PublicCollection struct {
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Slug        string            `json:"slug"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Bookmarks   []domain.Bookmark `json:"bookmarks"`
}

// NewCollection describes a collection to create.
type NewCollection struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	BookmarkIDs []string `json:"bookmark_ids"`
	IsPublic    *bool    `json:"is_public,omitempty"`
}

// CollectionPatch changes any subset of name, description and visibility.
type CollectionPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

// ShareURL is where a collection can be viewed.
func (c *Client) ShareURL(slug string) string {
	return c.baseURL + "/api/v1/shared/" + url.PathEscape(slug)
}

// CreateCollection shares bookmarks under a new slug.
func (c *Client) CreateCollection(ctx context.Context, in NewCollection) (*Collection, error) {
	if in.BookmarkIDs == nil {
		in.BookmarkIDs = []string{}
	}
	var out Collection
	if err := c.do(ctx, http.MethodPost, "/api/v1/collections", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCollections returns the caller's collections newest first.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	var out struct {
		Collections []Collection `json:"collections"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/collections", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Collections, nil
}

// UpdateCollection patches a collection.
func (c *Client) UpdateCollection(ctx context.Context, id string, patch CollectionPatch) (*domain.SharedCollection, error) {
	var out domain.SharedCollection
	if err := c.do(ctx, http.MethodPatch, "/api/v1/collections/"+url.PathEscape(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCollection removes a collection; its bookmarks stay.
func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/collections/"+url.PathEscape(id), nil, nil, nil)
}

// GetSharedCollection resolves a public slug. No token is needed.
func (c *Client) GetSharedCollection(ctx context.Context, slug string) (*PublicCollection, error) {
	var out PublicCollection
	if err := c.do(ctx, http.MethodGet, "/api/v1/shared/"+url.PathEscape(slug), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
