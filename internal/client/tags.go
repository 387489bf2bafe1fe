package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
)

// TagPatch renames and/or recolors a tag.
type TagPatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// ListTags returns the caller's tags ordered by name.
func (c *Client) ListTags(ctx context.Context, _ string) ([]domain.Tag, error) {
	var out struct {
		Tags []domain.Tag `json:"tags"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/tags", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Tags == nil {
		out.Tags = []domain.Tag{}
	}
	return out.Tags, nil
}

// CreateTag creates a tag. An empty color picks the default.
func (c *Client) CreateTag(ctx context.Context, name, color string) (*domain.Tag, error) {
	body := map[string]string{"name": name}
	if color != "" {
		body["color"] = color
	}
	var t domain.Tag
	if err := c.do(ctx, http.MethodPost, "/api/v1/tags", nil, body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTag patches a tag.
func (c *Client) UpdateTag(ctx context.Context, id string, patch TagPatch) (*domain.Tag, error) {
	var t domain.Tag
	if err := c.do(ctx, http.MethodPatch, "/api/v1/tags/"+url.PathEscape(id), nil, patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTag removes a tag from the caller's account and every bookmark.
func (c *Client) DeleteTag(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tags/"+url.PathEscape(id), nil, nil, nil)
}
