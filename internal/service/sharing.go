package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/smartbookmarks/smartbookmarks/internal/changefeed"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	domainerrors "github.com/smartbookmarks/smartbookmarks/internal/errors"
	"github.com/smartbookmarks/smartbookmarks/internal/store"
	"github.com/smartbookmarks/smartbookmarks/internal/validation"
)

// slugAttempts bounds retries when a generated slug collides.
const slugAttempts = 3

// SharingService publishes read-only collections of a user's bookmarks.
type SharingService struct {
	store     store.Store
	feed      changefeed.Publisher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewSharingService creates a new sharing service.
func NewSharingService(s store.Store, feed changefeed.Publisher, logger *slog.Logger) *SharingService {
	if feed == nil {
		feed = changefeed.NopPublisher{}
	}
	return &SharingService{
		store:     s,
		feed:      feed,
		validator: validation.New(),
		logger:    logger,
	}
}

// CreateCollectionInput describes a new collection. Bookmarks keep the given order.
type CreateCollectionInput struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	BookmarkIDs []string `json:"bookmark_ids" validate:"dive,required"`
	IsPublic    *bool    `json:"is_public,omitempty"`
}

// UpdateCollectionInput changes any subset of name, description and visibility.
// An empty description clears it.
type UpdateCollectionInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

// CollectionView is a collection with its member bookmark IDs in display order.
type CollectionView struct {
	domain.SharedCollection
	BookmarkIDs []string `json:"bookmark_ids"`
}

// PublicCollection is what anonymous visitors of a share link see.
type PublicCollection struct {
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Slug        string            `json:"slug"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Bookmarks   []domain.Bookmark `json:"bookmarks"`
}

// CreateCollection shares the given bookmarks under a new random slug.
// Every bookmark must belong to the user and appear once.
func (s *SharingService) CreateCollection(ctx context.Context, userID string, in CreateCollectionInput) (*CollectionView, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = normalizeDescription(in.Description)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if err := s.checkMembers(ctx, userID, in.BookmarkIDs); err != nil {
		return nil, err
	}

	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	var c *domain.SharedCollection
	for attempt := 1; ; attempt++ {
		c = &domain.SharedCollection{
			UserID:      userID,
			Name:        in.Name,
			Description: in.Description,
			IsPublic:    isPublic,
		}
		err := s.store.CreateSharedCollection(ctx, c, in.BookmarkIDs)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrAlreadyExists) || attempt == slugAttempts {
			return nil, err
		}
		s.logger.Warn("collection slug collision, retrying", "attempt", attempt)
	}

	s.logger.Info("collection shared",
		"user_id", userID,
		"collection_id", c.ID,
		"bookmarks", len(in.BookmarkIDs),
	)
	publish(s.feed, s.logger, changefeed.TableCollections, changefeed.EventInsert, userID, c, nil)

	ids := append([]string{}, in.BookmarkIDs...)
	return &CollectionView{SharedCollection: *c, BookmarkIDs: ids}, nil
}

func (s *SharingService) checkMembers(ctx context.Context, userID string, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return domainerrors.Validationf("bookmark %s listed more than once", id)
		}
		seen[id] = struct{}{}
	}

	found, err := s.store.GetBookmarksByIDs(ctx, ids)
	if err != nil {
		return err
	}
	owned := 0
	for _, b := range found {
		if b.UserID == userID {
			owned++
		}
	}
	if owned != len(ids) {
		return domainerrors.NotFound("bookmark not found")
	}
	return nil
}

// ListCollections returns the user's collections, newest first.
func (s *SharingService) ListCollections(ctx context.Context, userID string) ([]CollectionView, error) {
	cols, err := s.store.ListSharedCollections(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]CollectionView, 0, len(cols))
	for _, c := range cols {
		members, err := s.store.ListCollectionBookmarks(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = m.BookmarkID
		}
		out = append(out, CollectionView{SharedCollection: c, BookmarkIDs: ids})
	}
	return out, nil
}

func (s *SharingService) ownedCollection(ctx context.Context, userID, collectionID string) (*domain.SharedCollection, error) {
	c, err := s.store.GetSharedCollection(ctx, collectionID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && c.UserID != userID) {
		return nil, domainerrors.NotFound("collection not found")
	}
	return c, err
}

// UpdateCollection edits an owned collection.
func (s *SharingService) UpdateCollection(ctx context.Context, userID, collectionID string, in UpdateCollectionInput) (*domain.SharedCollection, error) {
	old, err := s.ownedCollection(ctx, userID, collectionID)
	if err != nil {
		return nil, err
	}

	next := CreateCollectionInput{Name: old.Name, Description: old.Description}
	if in.Name != nil {
		next.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		next.Description = normalizeDescription(in.Description)
	}
	if err := s.validator.Validate(next); err != nil {
		return nil, err
	}

	updated := *old
	updated.Name = next.Name
	updated.Description = next.Description
	if in.IsPublic != nil {
		updated.IsPublic = *in.IsPublic
	}
	updated.Touch()
	if err := s.store.UpdateSharedCollection(ctx, &updated); err != nil {
		return nil, err
	}

	publish(s.feed, s.logger, changefeed.TableCollections, changefeed.EventUpdate, userID, &updated, old)
	return &updated, nil
}

// DeleteCollection removes an owned collection. The bookmarks are untouched.
func (s *SharingService) DeleteCollection(ctx context.Context, userID, collectionID string) error {
	old, err := s.ownedCollection(ctx, userID, collectionID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSharedCollection(ctx, collectionID); err != nil {
		return err
	}

	publish(s.feed, s.logger, changefeed.TableCollections, changefeed.EventDelete, userID, nil, old)
	return nil
}

// GetPublicCollection resolves a share link. Private and unknown slugs are
// indistinguishable to the caller.
func (s *SharingService) GetPublicCollection(ctx context.Context, slug string) (*PublicCollection, error) {
	c, err := s.store.GetSharedCollectionBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !c.IsPublic) {
		return nil, domainerrors.NotFound("collection not found")
	}
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListCollectionBookmarks(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.BookmarkID
	}
	found, err := s.store.GetBookmarksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Bookmark, len(found))
	for _, b := range found {
		byID[b.ID] = b
	}

	bookmarks := make([]domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			bookmarks = append(bookmarks, b)
		}
	}

	return &PublicCollection{
		Name:        c.Name,
		Description: c.Description,
		Slug:        c.Slug,
		UpdatedAt:   c.UpdatedAt,
		Bookmarks:   bookmarks,
	}, nil
}

func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*d)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
