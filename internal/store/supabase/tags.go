package supabase

import (
	"context"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/store"
)

// ListTags returns the user's tags ordered by name.
func (s *Store) ListTags(ctx context.Context, userID string) ([]domain.Tag, error) {
	out := []domain.Tag{}
	q := s.from(tableTags).Select("*", "", false).
		Eq("user_id", userID).
		Order("name", asc())
	if err := run(ctx, q, &out, "tags"); err != nil {
		return nil, err
	}
	domain.SortTags(out)
	return out, nil
}

// GetTag returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	var rows []domain.Tag
	q := s.from(tableTags).Select("*", "", false).Eq("id", id)
	if err := run(ctx, q, &rows, "tag"); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound.WithMessage("tag not found")
	}
	return &rows[0], nil
}

// CreateTag inserts a new tag.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	if err := store.PrepareTag(t); err != nil {
		return err
	}
	var rows []domain.Tag
	q := s.from(tableTags).Insert(t, false, "", "representation", "")
	if err := run(ctx, q, &rows, "tag"); err != nil {
		return err
	}
	if len(rows) > 0 {
		*t = rows[0]
	}
	return nil
}

type tagPatch struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// UpdateTag renames or recolors a tag.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	var rows []domain.Tag
	q := s.from(tableTags).
		Update(tagPatch{Name: t.Name, Color: t.Color}, "representation", "").
		Eq("id", t.ID)
	if err := run(ctx, q, &rows, "tag"); err != nil {
		return err
	}
	if len(rows) == 0 {
		return store.ErrNotFound.WithMessage("tag not found")
	}
	return nil
}

// DeleteTag removes a tag.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	var rows []domain.Tag
	q := s.from(tableTags).Delete("representation", "").Eq("id", id)
	if err := run(ctx, q, &rows, "tag"); err != nil {
		return err
	}
	if len(rows) == 0 {
		return store.ErrNotFound.WithMessage("tag not found")
	}
	return nil
}
