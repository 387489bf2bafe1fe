package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/service"
)

func (s *Server) registerBookmarkRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBookmarks",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookmarks",
		Summary:     "List bookmarks",
		Description: "Returns the current user's bookmarks with tags, newest first, optionally filtered",
		Tags:        []string{"Bookmarks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBookmarks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBookmark",
		Method:        http.MethodPost,
		Path:          "/api/v1/bookmarks",
		Summary:       "Create bookmark",
		Description:   "Saves a URL with a title",
		Tags:          []string{"Bookmarks"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBookmark)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBookmark",
		Method:      http.MethodPatch,
		Path:        "/api/v1/bookmarks/{id}",
		Summary:     "Update bookmark",
		Description: "Changes the URL and/or title of a bookmark",
		Tags:        []string{"Bookmarks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBookmark)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBookmark",
		Method:        http.MethodDelete,
		Path:          "/api/v1/bookmarks/{id}",
		Summary:       "Delete bookmark",
		Description:   "Deletes a bookmark and its tag links",
		Tags:          []string{"Bookmarks"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBookmark)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addBookmarkTag",
		Method:        http.MethodPut,
		Path:          "/api/v1/bookmarks/{id}/tags/{tagID}",
		Summary:       "Tag bookmark",
		Description:   "Applies a tag to a bookmark. Applying it again is a no-op",
		Tags:          []string{"Bookmarks"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleAddBookmarkTag)

	huma.Register(s.api, huma.Operation{
		OperationID:   "removeBookmarkTag",
		Method:        http.MethodDelete,
		Path:          "/api/v1/bookmarks/{id}/tags/{tagID}",
		Summary:       "Untag bookmark",
		Description:   "Removes a tag from a bookmark",
		Tags:          []string{"Bookmarks"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveBookmarkTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBookmarkTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookmark-tags",
		Summary:     "List bookmark tag links",
		Description: "Returns tag associations for the user's bookmarks, optionally limited to the given IDs",
		Tags:        []string{"Bookmarks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBookmarkTags)
}

// === DTOs ===

// ListBookmarksInput contains filter parameters for listing bookmarks.
type ListBookmarksInput struct {
	Query string   `query:"q" doc:"Case-insensitive substring matched against title and URL"`
	Tags  []string `query:"tag" doc:"Tag IDs, comma separated; a bookmark must carry all of them"`
}

// ListBookmarksResponse contains a list of bookmarks.
type ListBookmarksResponse struct {
	Bookmarks []domain.BookmarkWithTags `json:"bookmarks" doc:"Bookmarks, newest first"`
}

// ListBookmarksOutput wraps the list bookmarks response for Huma.
type ListBookmarksOutput struct {
	Body ListBookmarksResponse
}

// CreateBookmarkRequest is the request body for creating a bookmark.
type CreateBookmarkRequest struct {
	URL   string `json:"url" doc:"Absolute http(s) URL"`
	Title string `json:"title" doc:"Display title, at most 100 characters"`
}

// CreateBookmarkInput wraps the create bookmark request for Huma.
type CreateBookmarkInput struct {
	Body CreateBookmarkRequest
}

// BookmarkOutput wraps a bookmark for Huma.
type BookmarkOutput struct {
	Body domain.Bookmark
}

// UpdateBookmarkRequest is the request body for updating a bookmark.
type UpdateBookmarkRequest struct {
	URL   *string `json:"url,omitempty" doc:"New URL"`
	Title *string `json:"title,omitempty" doc:"New title"`
}

// UpdateBookmarkInput wraps the update bookmark request for Huma.
type UpdateBookmarkInput struct {
	ID   string `path:"id" doc:"Bookmark ID"`
	Body UpdateBookmarkRequest
}

// BookmarkIDInput addresses a single bookmark.
type BookmarkIDInput struct {
	ID string `path:"id" doc:"Bookmark ID"`
}

// BookmarkTagInput addresses one tag link of a bookmark.
type BookmarkTagInput struct {
	ID    string `path:"id" doc:"Bookmark ID"`
	TagID string `path:"tagID" doc:"Tag ID"`
}

// ListBookmarkTagsInput limits the associations returned.
type ListBookmarkTagsInput struct {
	IDs []string `query:"ids" doc:"Bookmark IDs, comma separated; empty means all"`
}

// ListBookmarkTagsResponse contains bookmark-tag associations.
type ListBookmarkTagsResponse struct {
	BookmarkTags []domain.BookmarkTag `json:"bookmark_tags" doc:"Associations"`
}

// ListBookmarkTagsOutput wraps the associations for Huma.
type ListBookmarkTagsOutput struct {
	Body ListBookmarkTagsResponse
}

// === Handlers ===

func (s *Server) handleListBookmarks(ctx context.Context, input *ListBookmarksInput) (*ListBookmarksOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	bookmarks, err := s.services.Bookmark.ListBookmarks(ctx, userID, input.Query, input.Tags)
	if err != nil {
		return nil, err
	}
	if bookmarks == nil {
		bookmarks = []domain.BookmarkWithTags{}
	}

	return &ListBookmarksOutput{Body: ListBookmarksResponse{Bookmarks: bookmarks}}, nil
}

func (s *Server) handleCreateBookmark(ctx context.Context, input *CreateBookmarkInput) (*BookmarkOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	b, err := s.services.Bookmark.CreateBookmark(ctx, userID, service.CreateBookmarkInput{
		URL:   input.Body.URL,
		Title: input.Body.Title,
	})
	if err != nil {
		return nil, err
	}

	return &BookmarkOutput{Body: *b}, nil
}

func (s *Server) handleUpdateBookmark(ctx context.Context, input *UpdateBookmarkInput) (*BookmarkOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	b, err := s.services.Bookmark.UpdateBookmark(ctx, userID, input.ID, service.UpdateBookmarkInput{
		URL:   input.Body.URL,
		Title: input.Body.Title,
	})
	if err != nil {
		return nil, err
	}

	return &BookmarkOutput{Body: *b}, nil
}

func (s *Server) handleDeleteBookmark(ctx context.Context, input *BookmarkIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Bookmark.DeleteBookmark(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleAddBookmarkTag(ctx context.Context, input *BookmarkTagInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Bookmark.AddTag(ctx, userID, input.ID, input.TagID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleRemoveBookmarkTag(ctx context.Context, input *BookmarkTagInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Bookmark.RemoveTag(ctx, userID, input.ID, input.TagID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleListBookmarkTags(ctx context.Context, input *ListBookmarkTagsInput) (*ListBookmarkTagsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	links, err := s.services.Bookmark.ListBookmarkTags(ctx, userID, input.IDs)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []domain.BookmarkTag{}
	}

	return &ListBookmarkTagsOutput{Body: ListBookmarkTagsResponse{BookmarkTags: links}}, nil
}
