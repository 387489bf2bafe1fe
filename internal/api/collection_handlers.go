package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/service"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCollections",
		Method:      http.MethodGet,
		Path:        "/api/v1/collections",
		Summary:     "List shared collections",
		Description: "Returns the current user's shared collections, newest first",
		Tags:        []string{"Sharing"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListCollections)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCollection",
		Method:        http.MethodPost,
		Path:          "/api/v1/collections",
		Summary:       "Share bookmarks",
		Description:   "Creates a collection reachable at a random slug",
		Tags:          []string{"Sharing"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCollection",
		Method:      http.MethodPatch,
		Path:        "/api/v1/collections/{id}",
		Summary:     "Update shared collection",
		Description: "Changes name, description or visibility",
		Tags:        []string{"Sharing"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCollection)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteCollection",
		Method:        http.MethodDelete,
		Path:          "/api/v1/collections/{id}",
		Summary:       "Delete shared collection",
		Description:   "Removes the collection; its bookmarks are kept",
		Tags:          []string{"Sharing"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSharedCollection",
		Method:      http.MethodGet,
		Path:        "/api/v1/shared/{slug}",
		Summary:     "View shared collection",
		Description: "Public, read-only view of a collection by slug",
		Tags:        []string{"Sharing"},
	}, s.handleGetSharedCollection)
}

// === DTOs ===

// ListCollectionsResponse contains the user's collections.
type ListCollectionsResponse struct {
	Collections []service.CollectionView `json:"collections" doc:"Collections with member IDs in display order"`
}

// ListCollectionsOutput wraps the list collections response for Huma.
type ListCollectionsOutput struct {
	Body ListCollectionsResponse
}

// CreateCollectionRequest is the request body for sharing bookmarks.
type CreateCollectionRequest struct {
	Name        string   `json:"name" doc:"Collection name"`
	Description *string  `json:"description,omitempty" doc:"Optional description"`
	BookmarkIDs []string `json:"bookmark_ids" doc:"Bookmarks in display order"`
	IsPublic    *bool    `json:"is_public,omitempty" doc:"Defaults to true"`
}

// CreateCollectionInput wraps the create collection request for Huma.
type CreateCollectionInput struct {
	Body CreateCollectionRequest
}

// CollectionViewOutput wraps a collection with its members for Huma.
type CollectionViewOutput struct {
	Body service.CollectionView
}

// UpdateCollectionRequest is the request body for editing a collection.
type UpdateCollectionRequest struct {
	Name        *string `json:"name,omitempty" doc:"New name"`
	Description *string `json:"description,omitempty" doc:"New description; empty clears it"`
	IsPublic    *bool   `json:"is_public,omitempty" doc:"Visibility"`
}

// UpdateCollectionInput wraps the update collection request for Huma.
type UpdateCollectionInput struct {
	ID   string `path:"id" doc:"Collection ID"`
	Body UpdateCollectionRequest
}

// CollectionOutput wraps a collection for Huma.
type CollectionOutput struct {
	Body domain.SharedCollection
}

// DeleteCollectionInput contains parameters for deleting a collection.
type DeleteCollectionInput struct {
	ID string `path:"id" doc:"Collection ID"`
}

// SharedCollectionInput addresses a public collection.
type SharedCollectionInput struct {
	Slug string `path:"slug" doc:"Share slug"`
}

// SharedCollectionOutput wraps the public view for Huma.
type SharedCollectionOutput struct {
	Body service.PublicCollection
}

// === Handlers ===

func (s *Server) handleListCollections(ctx context.Context, _ *struct{}) (*ListCollectionsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	cols, err := s.services.Sharing.ListCollections(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListCollectionsOutput{Body: ListCollectionsResponse{Collections: cols}}, nil
}

func (s *Server) handleCreateCollection(ctx context.Context, input *CreateCollectionInput) (*CollectionViewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Sharing.CreateCollection(ctx, userID, service.CreateCollectionInput{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		BookmarkIDs: input.Body.BookmarkIDs,
		IsPublic:    input.Body.IsPublic,
	})
	if err != nil {
		return nil, err
	}

	return &CollectionViewOutput{Body: *view}, nil
}

func (s *Server) handleUpdateCollection(ctx context.Context, input *UpdateCollectionInput) (*CollectionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.services.Sharing.UpdateCollection(ctx, userID, input.ID, service.UpdateCollectionInput{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		IsPublic:    input.Body.IsPublic,
	})
	if err != nil {
		return nil, err
	}

	return &CollectionOutput{Body: *c}, nil
}

func (s *Server) handleDeleteCollection(ctx context.Context, input *DeleteCollectionInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Sharing.DeleteCollection(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleGetSharedCollection(ctx context.Context, input *SharedCollectionInput) (*SharedCollectionOutput, error) {
	pub, err := s.services.Sharing.GetPublicCollection(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	return &SharedCollectionOutput{Body: *pub}, nil
}
