package client

import (
	"context"
	"net/http"

	"github.com/smartbookmarks/smartbookmarks/internal/titlefetch"
)

// FetchTitle asks the server for a page title. The result falls back to the
// hostname; only an invalid URL is an error.
func (c *Client) FetchTitle(ctx context.Context, rawURL string) (titlefetch.Result, error) {
	var out titlefetch.Result
	err := c.do(ctx, http.MethodPost, "/api/v1/fetch-title", nil, map[string]string{"url": rawURL}, &out)
	return out, err
}
