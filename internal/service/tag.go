package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/smartbookmarks/smartbookmarks/internal/changefeed"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/store"
	"github.com/smartbookmarks/smartbookmarks/internal/validation"
)

// MaxTagNameLength bounds tag names.
const MaxTagNameLength = 50

// TagService manages a user's tags.
// Names are not unique; the palette is a suggestion and any color string is kept.
type TagService struct {
	store     store.Store
	feed      changefeed.Publisher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(s store.Store, feed changefeed.Publisher, logger *slog.Logger) *TagService {
	if feed == nil {
		feed = changefeed.NopPublisher{}
	}
	return &TagService{
		store:     s,
		feed:      feed,
		validator: validation.New(),
		logger:    logger,
	}
}

// CreateTagInput is the payload for a new tag. Color defaults to the first palette entry.
type CreateTagInput struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color,omitempty" validate:"omitempty,max=32"`
}

// UpdateTagInput renames and/or recolors a tag.
type UpdateTagInput struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// ListTags returns the user's tags ordered by name.
func (s *TagService) ListTags(ctx context.Context, userID string) ([]domain.Tag, error) {
	tags, err := s.store.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}
	domain.SortTags(tags)
	return tags, nil
}

// CreateTag creates a tag for the user.
func (s *TagService) CreateTag(ctx context.Context, userID string, in CreateTagInput) (*domain.Tag, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.TrimSpace(in.Color)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	t := &domain.Tag{
		UserID: userID,
		Name:   in.Name,
		Color:  in.Color,
	}
	if err := s.store.CreateTag(ctx, t); err != nil {
		return nil, err
	}

	publish(s.feed, s.logger, changefeed.TableTags, changefeed.EventInsert, userID, t, nil)
	return t, nil
}

// UpdateTag renames or recolors an owned tag.
func (s *TagService) UpdateTag(ctx context.Context, userID, tagID string, in UpdateTagInput) (*domain.Tag, error) {
	old, err := ownedTag(ctx, s.store, userID, tagID)
	if err != nil {
		return nil, err
	}

	next := CreateTagInput{Name: old.Name, Color: old.Color}
	if in.Name != nil {
		next.Name = strings.TrimSpace(*in.Name)
	}
	if in.Color != nil {
		next.Color = strings.TrimSpace(*in.Color)
	}
	if next.Color == "" {
		next.Color = domain.DefaultTagColor()
	}
	if err := s.validator.Validate(next); err != nil {
		return nil, err
	}

	updated := *old
	updated.Name = next.Name
	updated.Color = next.Color
	if err := s.store.UpdateTag(ctx, &updated); err != nil {
		return nil, err
	}

	publish(s.feed, s.logger, changefeed.TableTags, changefeed.EventUpdate, userID, &updated, old)
	return &updated, nil
}

// DeleteTag removes an owned tag; it disappears from every bookmark.
func (s *TagService) DeleteTag(ctx context.Context, userID, tagID string) error {
	old, err := ownedTag(ctx, s.store, userID, tagID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTag(ctx, tagID); err != nil {
		return err
	}

	publish(s.feed, s.logger, changefeed.TableTags, changefeed.EventDelete, userID, nil, old)
	return nil
}
