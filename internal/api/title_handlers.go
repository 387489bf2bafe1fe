package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smartbookmarks/smartbookmarks/internal/titlefetch"
)

func (s *Server) registerTitleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "fetchTitle",
		Method:      http.MethodPost,
		Path:        "/api/v1/fetch-title",
		Summary:     "Fetch page title",
		Description: "Looks up the title of a web page, falling back to its hostname",
		Tags:        []string{"Bookmarks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFetchTitle)
}

// FetchTitleRequest is the request body for a title lookup.
type FetchTitleRequest struct {
	URL string `json:"url" doc:"Page to look up"`
}

// FetchTitleInput wraps the title lookup request for Huma.
type FetchTitleInput struct {
	Body FetchTitleRequest
}

// FetchTitleOutput wraps the lookup result for Huma.
type FetchTitleOutput struct {
	Body titlefetch.Result
}

func (s *Server) handleFetchTitle(ctx context.Context, input *FetchTitleInput) (*FetchTitleOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	if s.services.Titles == nil {
		return nil, huma.Error503ServiceUnavailable("Title lookup is disabled")
	}

	r, err := s.services.Titles.Fetch(ctx, input.Body.URL)
	if err != nil {
		return nil, err
	}
	return &FetchTitleOutput{Body: r}, nil
}
