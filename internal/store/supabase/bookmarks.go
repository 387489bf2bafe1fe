package supabase

import (
	"context"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/store"
)

// ListBookmarks returns the user's bookmarks, newest first.
func (s *Store) ListBookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	out := []domain.Bookmark{}
	q := s.from(tableBookmarks).Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", desc())
	if err := run(ctx, q, &out, "bookmarks"); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBookmarksByIDs returns the bookmarks with the given IDs.
func (s *Store) GetBookmarksByIDs(ctx context.Context, ids []string) ([]domain.Bookmark, error) {
	out := []domain.Bookmark{}
	if len(ids) == 0 {
		return out, nil
	}
	q := s.from(tableBookmarks).Select("*", "", false).In("id", ids)
	if err := run(ctx, q, &out, "bookmarks"); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBookmark returns store.ErrNotFound if the bookmark does not exist.
func (s *Store) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	var rows []domain.Bookmark
	q := s.from(tableBookmarks).Select("*", "", false).Eq("id", id)
	if err := run(ctx, q, &rows, "bookmark"); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound.WithMessage("bookmark not found")
	}
	return &rows[0], nil
}

// CreateBookmark inserts b, filling in ID and CreatedAt when unset.
func (s *Store) CreateBookmark(ctx context.Context, b *domain.Bookmark) error {
	if err := store.PrepareBookmark(b); err != nil {
		return err
	}
	var rows []domain.Bookmark
	q := s.from(tableBookmarks).Insert(b, false, "", "representation", "")
	if err := run(ctx, q, &rows, "bookmark"); err != nil {
		return err
	}
	if len(rows) > 0 {
		*b = rows[0]
	}
	return nil
}

type bookmarkPatch struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// UpdateBookmark rewrites the URL and title.
func (s *Store) UpdateBookmark(ctx context.Context, b *domain.Bookmark) error {
	var rows []domain.Bookmark
	q := s.from(tableBookmarks).
		Update(bookmarkPatch{URL: b.URL, Title: b.Title}, "representation", "").
		Eq("id", b.ID)
	if err := run(ctx, q, &rows, "bookmark"); err != nil {
		return err
	}
	if len(rows) == 0 {
		return store.ErrNotFound.WithMessage("bookmark not found")
	}
	return nil
}

// DeleteBookmark removes the bookmark; foreign keys cascade its links.
func (s *Store) DeleteBookmark(ctx context.Context, id string) error {
	var rows []domain.Bookmark
	q := s.from(tableBookmarks).Delete("representation", "").Eq("id", id)
	if err := run(ctx, q, &rows, "bookmark"); err != nil {
		return err
	}
	if len(rows) == 0 {
		return store.ErrNotFound.WithMessage("bookmark not found")
	}
	return nil
}

// ListBookmarkTags returns every association for the given bookmarks.
func (s *Store) ListBookmarkTags(ctx context.Context, bookmarkIDs []string) ([]domain.BookmarkTag, error) {
	out := []domain.BookmarkTag{}
	if len(bookmarkIDs) == 0 {
		return out, nil
	}
	q := s.from(tableBookmarkTags).Select("bookmark_id,tag_id", "", false).In("bookmark_id", bookmarkIDs)
	if err := run(ctx, q, &out, "bookmark tags"); err != nil {
		return nil, err
	}
	return out, nil
}

// AddBookmarkTag links a tag to a bookmark.
func (s *Store) AddBookmarkTag(ctx context.Context, bt domain.BookmarkTag) error {
	var rows []domain.BookmarkTag
	q := s.from(tableBookmarkTags).Insert(bt, false, "", "representation", "")
	return run(ctx, q, &rows, "tag association")
}

// RemoveBookmarkTag unlinks a tag from a bookmark.
func (s *Store) RemoveBookmarkTag(ctx context.Context, bt domain.BookmarkTag) error {
	var rows []domain.BookmarkTag
	q := s.from(tableBookmarkTags).Delete("representation", "").
		Eq("bookmark_id", bt.BookmarkID).
		Eq("tag_id", bt.TagID)
	if err := run(ctx, q, &rows, "tag association"); err != nil {
		return err
	}
	if len(rows) == 0 {
		return store.ErrNotFound.WithMessage("tag association not found")
	}
	return nil
}
