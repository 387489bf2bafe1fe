package client

import (
	"context"
	"net/http"
)

// Session returns the user ID the token belongs to.
func (c *Client) Session(ctx context.Context) (string, error) {
	var out struct {
		UserID string `json:"user_id"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/session", nil, nil, &out); err != nil {
		return "", err
	}
	return out.UserID, nil
}
