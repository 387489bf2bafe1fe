package api

import (
	"context"

	"github.com/smartbookmarks/smartbookmarks/internal/service"
	"github.com/smartbookmarks/smartbookmarks/internal/titlefetch"
)

// TitleFetcher looks up page titles for the fetch-title endpoint.
type TitleFetcher interface {
	Fetch(ctx context.Context, rawURL string) (titlefetch.Result, error)
}

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Bookmark *service.BookmarkService
	Tag      *service.TagService
	Sharing  *service.SharingService
	Titles   TitleFetcher
}
