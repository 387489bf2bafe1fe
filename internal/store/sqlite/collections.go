package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/store"
)

const collectionColumns = `id, user_id, name, slug, description, is_public, created_at, updated_at`

func scanCollection(scanner interface{ Scan(dest ...any) error }) (*domain.SharedCollection, error) {
	var (
		c           domain.SharedCollection
		description sql.NullString
		createdAt   string
		updatedAt   string
	)
	err := scanner.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Slug,
		&description,
		&c.IsPublic,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		c.Description = &description.String
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateSharedCollection inserts the collection and its members in one transaction.
func (s *Store) CreateSharedCollection(ctx context.Context, c *domain.SharedCollection, bookmarkIDs []string) error {
	if err := store.PrepareCollection(c); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
		INSERT INTO shared_collections (`+collectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.UserID,
		c.Name,
		c.Slug,
		nullableString(c.Description),
		c.IsPublic,
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("collection slug already taken")
		}
		return fmt.Errorf("insert collection: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO collection_bookmarks (collection_id, bookmark_id, sort_order)
		VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare member insert: %w", err)
	}
	defer stmt.Close()

	for i, bid := range bookmarkIDs {
		if _, err := stmt.ExecContext(ctx, c.ID, bid, i); err != nil {
			switch {
			case isUniqueViolation(err):
				return store.ErrInvalidInput.WithMessage("bookmark listed twice")
			case isForeignKeyViolation(err):
				return store.ErrNotFound.WithMessage("bookmark not found")
			}
			return fmt.Errorf("insert collection member: %w", err)
		}
	}

	return tx.Commit()
}

// ListSharedCollections returns the user's collections, newest first.
func (s *Store) ListSharedCollections(ctx context.Context, userID string) ([]domain.SharedCollection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+collectionColumns+` FROM shared_collections WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	out := []domain.SharedCollection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) getCollection(ctx context.Context, where string, arg any) (*domain.SharedCollection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM shared_collections WHERE `+where+` = ?`, arg)
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("collection not found")
	}
	return c, err
}

// GetSharedCollection looks a collection up by ID.
func (s *Store) GetSharedCollection(ctx context.Context, id string) (*domain.SharedCollection, error) {
	return s.getCollection(ctx, "id", id)
}

// GetSharedCollectionBySlug looks a collection up by its public slug.
func (s *Store) GetSharedCollectionBySlug(ctx context.Context, slug string) (*domain.SharedCollection, error) {
	return s.getCollection(ctx, "slug", slug)
}

// UpdateSharedCollection saves name, description and visibility.
func (s *Store) UpdateSharedCollection(ctx context.Context, c *domain.SharedCollection) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE shared_collections
		SET name = ?, description = ?, is_public = ?, updated_at = ?
		WHERE id = ?`,
		c.Name,
		nullableString(c.Description),
		c.IsPublic,
		formatTime(c.UpdatedAt),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update collection: %w", err)
	}
	return checkAffected(res, "collection")
}

// DeleteSharedCollection removes the collection and its membership rows.
func (s *Store) DeleteSharedCollection(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shared_collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return checkAffected(res, "collection")
}

// ListCollectionBookmarks returns members by sort order, ties in insertion order.
func (s *Store) ListCollectionBookmarks(ctx context.Context, collectionID string) ([]domain.CollectionBookmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT collection_id, bookmark_id, sort_order FROM collection_bookmarks
		WHERE collection_id = ?
		ORDER BY sort_order, rowid`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("query collection members: %w", err)
	}
	defer rows.Close()

	out := []domain.CollectionBookmark{}
	for rows.Next() {
		var cb domain.CollectionBookmark
		if err := rows.Scan(&cb.CollectionID, &cb.BookmarkID, &cb.SortOrder); err != nil {
			return nil, fmt.Errorf("scan collection member: %w", err)
		}
		out = append(out, cb)
	}
	return out, rows.Err()
}
