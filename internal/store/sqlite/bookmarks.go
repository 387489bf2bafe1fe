package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/store"
)

// bookmarkColumns must match the scan order in scanBookmark.
const bookmarkColumns = `id, user_id, url, title, created_at`

func scanBookmark(scanner interface{ Scan(dest ...any) error }) (*domain.Bookmark, error) {
	var (
		b         domain.Bookmark
		createdAt string
	)
	if err := scanner.Scan(&b.ID, &b.UserID, &b.URL, &b.Title, &createdAt); err != nil {
		return nil, err
	}
	var err error
	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) queryBookmarks(ctx context.Context, query string, args ...any) ([]domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	out := []domain.Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// ListBookmarks returns the user's bookmarks, newest first.
func (s *Store) ListBookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	return s.queryBookmarks(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC`, userID)
}

// GetBookmarksByIDs returns the bookmarks with the given IDs in no particular order.
func (s *Store) GetBookmarksByIDs(ctx context.Context, ids []string) ([]domain.Bookmark, error) {
	if len(ids) == 0 {
		return []domain.Bookmark{}, nil
	}
	args := make([]any, len(ids))
	for i, v := range ids {
		args[i] = v
	}
	return s.queryBookmarks(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id IN (`+placeholders(len(ids))+`)`, args...)
}

// GetBookmark returns store.ErrNotFound if the bookmark does not exist.
func (s *Store) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ?`, id)
	b, err := scanBookmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("bookmark not found")
	}
	return b, err
}

// CreateBookmark inserts b, filling in ID and CreatedAt when unset.
func (s *Store) CreateBookmark(ctx context.Context, b *domain.Bookmark) error {
	if err := store.PrepareBookmark(b); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (id, user_id, url, title, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.URL, b.Title, formatTime(b.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("bookmark already exists")
		}
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

// UpdateBookmark rewrites the URL and title. Owner and creation time are immutable.
func (s *Store) UpdateBookmark(ctx context.Context, b *domain.Bookmark) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookmarks SET url = ?, title = ? WHERE id = ?`,
		b.URL, b.Title, b.ID)
	if err != nil {
		return fmt.Errorf("update bookmark: %w", err)
	}
	return checkAffected(res, "bookmark")
}

// DeleteBookmark removes the bookmark; its tag and collection links cascade.
func (s *Store) DeleteBookmark(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return checkAffected(res, "bookmark")
}

// ListBookmarkTags returns every association for the given bookmarks.
func (s *Store) ListBookmarkTags(ctx context.Context, bookmarkIDs []string) ([]domain.BookmarkTag, error) {
	out := []domain.BookmarkTag{}
	if len(bookmarkIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(bookmarkIDs))
	for i, v := range bookmarkIDs {
		args[i] = v
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT bookmark_id, tag_id FROM bookmark_tags
		WHERE bookmark_id IN (`+placeholders(len(bookmarkIDs))+`)
		ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookmark tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bt domain.BookmarkTag
		if err := rows.Scan(&bt.BookmarkID, &bt.TagID); err != nil {
			return nil, fmt.Errorf("scan bookmark tag: %w", err)
		}
		out = append(out, bt)
	}
	return out, rows.Err()
}

// AddBookmarkTag links a tag to a bookmark.
func (s *Store) AddBookmarkTag(ctx context.Context, bt domain.BookmarkTag) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmark_tags (bookmark_id, tag_id) VALUES (?, ?)`,
		bt.BookmarkID, bt.TagID)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return store.ErrAlreadyExists.WithMessage("tag already applied")
		case isForeignKeyViolation(err):
			return store.ErrNotFound.WithMessage("bookmark or tag not found")
		}
		return fmt.Errorf("insert bookmark tag: %w", err)
	}
	return nil
}

// RemoveBookmarkTag unlinks a tag from a bookmark.
func (s *Store) RemoveBookmarkTag(ctx context.Context, bt domain.BookmarkTag) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmark_tags WHERE bookmark_id = ? AND tag_id = ?`,
		bt.BookmarkID, bt.TagID)
	if err != nil {
		return fmt.Errorf("delete bookmark tag: %w", err)
	}
	return checkAffected(res, "tag association")
}
