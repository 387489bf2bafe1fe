// Package store defines the persistence contract for bookmarks, tags and shared collections.
package store

import (
	"context"
	"time"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/id"
)

// Store is the CRUD gateway over the bookmark tables. Implementations
// surface backend errors as returned; callers do not retry.
type Store interface {
	Close() error
	Ping(ctx context.Context) error

	// Bookmarks. ListBookmarks returns newest first.
	ListBookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error)
	GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error)
	GetBookmarksByIDs(ctx context.Context, ids []string) ([]domain.Bookmark, error)
	CreateBookmark(ctx context.Context, b *domain.Bookmark) error
	UpdateBookmark(ctx context.Context, b *domain.Bookmark) error
	DeleteBookmark(ctx context.Context, id string) error

	// Tag associations. AddBookmarkTag returns ErrAlreadyExists for a pair
	// that is already linked.
	ListBookmarkTags(ctx context.Context, bookmarkIDs []string) ([]domain.BookmarkTag, error)
	AddBookmarkTag(ctx context.Context, bt domain.BookmarkTag) error
	RemoveBookmarkTag(ctx context.Context, bt domain.BookmarkTag) error

	// Tags. ListTags returns tags ordered by name.
	ListTags(ctx context.Context, userID string) ([]domain.Tag, error)
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	CreateTag(ctx context.Context, t *domain.Tag) error
	UpdateTag(ctx context.Context, t *domain.Tag) error
	DeleteTag(ctx context.Context, id string) error

	// Shared collections. CreateSharedCollection stores the collection and
	// then its members with SortOrder equal to their position in bookmarkIDs;
	// if the members cannot be stored the collection is removed again.
	CreateSharedCollection(ctx context.Context, c *domain.SharedCollection, bookmarkIDs []string) error
	ListSharedCollections(ctx context.Context, userID string) ([]domain.SharedCollection, error)
	GetSharedCollection(ctx context.Context, id string) (*domain.SharedCollection, error)
	GetSharedCollectionBySlug(ctx context.Context, slug string) (*domain.SharedCollection, error)
	UpdateSharedCollection(ctx context.Context, c *domain.SharedCollection) error
	DeleteSharedCollection(ctx context.Context, id string) error
	// ListCollectionBookmarks returns members by ascending SortOrder, ties in insertion order.
	ListCollectionBookmarks(ctx context.Context, collectionID string) ([]domain.CollectionBookmark, error)
}

// PrepareBookmark assigns an ID and creation time when missing.
func PrepareBookmark(b *domain.Bookmark) error {
	if b.ID == "" {
		bid, err := id.Generate(id.PrefixBookmark)
		if err != nil {
			return err
		}
		b.ID = bid
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return nil
}

// PrepareTag assigns an ID, creation time and default color when missing.
func PrepareTag(t *domain.Tag) error {
	if t.ID == "" {
		tid, err := id.Generate(id.PrefixTag)
		if err != nil {
			return err
		}
		t.ID = tid
	}
	if t.Color == "" {
		t.Color = domain.DefaultTagColor()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return nil
}

// PrepareCollection assigns an ID, slug and timestamps when missing.
func PrepareCollection(c *domain.SharedCollection) error {
	if c.ID == "" {
		cid, err := id.Generate(id.PrefixCollection)
		if err != nil {
			return err
		}
		c.ID = cid
	}
	if c.Slug == "" {
		slug, err := id.Slug()
		if err != nil {
			return err
		}
		c.Slug = slug
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	return nil
}
