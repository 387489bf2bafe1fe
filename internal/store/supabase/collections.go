package supabase

import (
	"context"
	"errors"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/store"
)

// CreateSharedCollection inserts the collection, then its members. PostgREST
// offers no multi-table transaction, so a failed member insert deletes the
// collection again before returning the error.
func (s *Store) CreateSharedCollection(ctx context.Context, c *domain.SharedCollection, bookmarkIDs []string) error {
	if err := store.PrepareCollection(c); err != nil {
		return err
	}

	var created []domain.SharedCollection
	q := s.from(tableSharedCollections).Insert(c, false, "", "representation", "")
	if err := run(ctx, q, &created, "collection"); err != nil {
		return err
	}
	if len(created) > 0 {
		*c = created[0]
	}
	if len(bookmarkIDs) == 0 {
		return nil
	}

	members := make([]domain.CollectionBookmark, len(bookmarkIDs))
	for i, bid := range bookmarkIDs {
		members[i] = domain.CollectionBookmark{CollectionID: c.ID, BookmarkID: bid, SortOrder: i}
	}
	var inserted []domain.CollectionBookmark
	mq := s.from(tableCollectionBookmarks).Insert(members, false, "", "representation", "")
	if err := run(ctx, mq, &inserted, "collection member"); err != nil {
		// Compensate with a fresh context so a cancelled request still cleans up.
		if derr := s.DeleteSharedCollection(context.WithoutCancel(ctx), c.ID); derr != nil {
			s.logger.Error("failed to remove orphaned collection",
				"collection_id", c.ID,
				"error", derr,
			)
			return errors.Join(err, derr)
		}
		return err
	}
	return nil
}

// ListSharedCollections returns the user's collections, newest first.
func (s *Store) ListSharedCollections(ctx context.Context, userID string) ([]domain.SharedCollection, error) {
	out := []domain.SharedCollection{}
	q := s.from(tableSharedCollections).Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", desc())
	if err := run(ctx, q, &out, "collections"); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) getCollection(ctx context.Context, column, value string) (*domain.SharedCollection, error) {
	var rows []domain.SharedCollection
	q := s.from(tableSharedCollections).Select("*", "", false).Eq(column, value)
	if err := run(ctx, q, &rows, "collection"); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound.WithMessage("collection not found")
	}
	return &rows[0], nil
}

// GetSharedCollection looks a collection up by ID.
func (s *Store) GetSharedCollection(ctx context.Context, id string) (*domain.SharedCollection, error) {
	return s.getCollection(ctx, "id", id)
}

// GetSharedCollectionBySlug looks a collection up by its public slug.
func (s *Store) GetSharedCollectionBySlug(ctx context.Context, slug string) (*domain.SharedCollection, error) {
	return s.getCollection(ctx, "slug", slug)
}

type collectionPatch struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsPublic    bool    `json:"is_public"`
	UpdatedAt   string  `json:"updated_at"`
}

// UpdateSharedCollection saves name, description and visibility.
func (s *Store) UpdateSharedCollection(ctx context.Context, c *domain.SharedCollection) error {
	patch := collectionPatch{
		Name:        c.Name,
		Description: c.Description,
		IsPublic:    c.IsPublic,
		UpdatedAt:   c.UpdatedAt.UTC().Format("2006-01-02T15:04:05.999999Z07:00"),
	}
	var rows []domain.SharedCollection
	q := s.from(tableSharedCollections).Update(patch, "representation", "").Eq("id", c.ID)
	if err := run(ctx, q, &rows, "collection"); err != nil {
		return err
	}
	if len(rows) == 0 {
		return store.ErrNotFound.WithMessage("collection not found")
	}
	return nil
}

// DeleteSharedCollection removes the collection; members cascade.
func (s *Store) DeleteSharedCollection(ctx context.Context, id string) error {
	var rows []domain.SharedCollection
	q := s.from(tableSharedCollections).Delete("representation", "").Eq("id", id)
	if err := run(ctx, q, &rows, "collection"); err != nil {
		return err
	}
	if len(rows) == 0 {
		return store.ErrNotFound.WithMessage("collection not found")
	}
	return nil
}

// ListCollectionBookmarks returns members by sort order.
func (s *Store) ListCollectionBookmarks(ctx context.Context, collectionID string) ([]domain.CollectionBookmark, error) {
	out := []domain.CollectionBookmark{}
	q := s.from(tableCollectionBookmarks).Select("*", "", false).
		Eq("collection_id", collectionID).
		Order("sort_order", asc())
	if err := run(ctx, q, &out, "collection members"); err != nil {
		return nil, err
	}
	return out, nil
}
