package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/smartbookmarks/smartbookmarks/internal/changefeed"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/filter"
	"github.com/smartbookmarks/smartbookmarks/internal/store"
	"github.com/smartbookmarks/smartbookmarks/internal/validation"
)

// BookmarkService manages a user's bookmarks and their tag associations.
type BookmarkService struct {
	store     store.Store
	feed      changefeed.Publisher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewBookmarkService creates a new bookmark service.
func NewBookmarkService(s store.Store, feed changefeed.Publisher, logger *slog.Logger) *BookmarkService {
	if feed == nil {
		feed = changefeed.NopPublisher{}
	}
	return &BookmarkService{
		store:     s,
		feed:      feed,
		validator: validation.New(),
		logger:    logger,
	}
}

// CreateBookmarkInput is the payload for saving a URL.
type CreateBookmarkInput struct {
	URL   string `json:"url" validate:"required,weburl"`
	Title string `json:"title" validate:"title"`
}

// UpdateBookmarkInput changes any subset of URL and title.
type UpdateBookmarkInput struct {
	URL   *string `json:"url,omitempty"`
	Title *string `json:"title,omitempty"`
}

// ListBookmarks returns the user's bookmarks joined with their tags, newest
// first, narrowed by the same filter the clients apply locally.
func (s *BookmarkService) ListBookmarks(ctx context.Context, userID, query string, tagIDs []string) ([]domain.BookmarkWithTags, error) {
	bookmarks, err := s.store.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(bookmarks))
	for i := range bookmarks {
		ids[i] = bookmarks[i].ID
	}
	links, err := s.store.ListBookmarkTags(ctx, ids)
	if err != nil {
		return nil, err
	}
	tags, err := s.store.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}

	return filter.Apply(domain.JoinTags(bookmarks, links, tags), query, tagIDs), nil
}

// ListBookmarkTags returns the associations of the user's bookmarks. With
// bookmarkIDs set, only those bookmarks are considered; foreign IDs are ignored.
func (s *BookmarkService) ListBookmarkTags(ctx context.Context, userID string, bookmarkIDs []string) ([]domain.BookmarkTag, error) {
	bookmarks, err := s.store.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]struct{}, len(bookmarks))
	for _, b := range bookmarks {
		owned[b.ID] = struct{}{}
	}

	var ids []string
	if len(bookmarkIDs) == 0 {
		ids = make([]string, 0, len(bookmarks))
		for _, b := range bookmarks {
			ids = append(ids, b.ID)
		}
	} else {
		for _, id := range bookmarkIDs {
			if _, ok := owned[id]; ok {
				ids = append(ids, id)
			}
		}
	}

	return s.store.ListBookmarkTags(ctx, ids)
}

// CreateBookmark validates and saves a bookmark for the user.
func (s *BookmarkService) CreateBookmark(ctx context.Context, userID string, in CreateBookmarkInput) (*domain.Bookmark, error) {
	in.URL = strings.TrimSpace(in.URL)
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	b := &domain.Bookmark{
		UserID: userID,
		URL:    in.URL,
		Title:  in.Title,
	}
	if err := s.store.CreateBookmark(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("bookmark created", "user_id", userID, "bookmark_id", b.ID)
	publish(s.feed, s.logger, changefeed.TableBookmarks, changefeed.EventInsert, userID, b, nil)
	return b, nil
}

// UpdateBookmark changes the URL and/or title of an owned bookmark.
func (s *BookmarkService) UpdateBookmark(ctx context.Context, userID, bookmarkID string, in UpdateBookmarkInput) (*domain.Bookmark, error) {
	old, err := ownedBookmark(ctx, s.store, userID, bookmarkID)
	if err != nil {
		return nil, err
	}

	next := CreateBookmarkInput{URL: old.URL, Title: old.Title}
	if in.URL != nil {
		next.URL = strings.TrimSpace(*in.URL)
	}
	if in.Title != nil {
		next.Title = strings.TrimSpace(*in.Title)
	}
	if err := s.validator.Validate(next); err != nil {
		return nil, err
	}

	updated := *old
	updated.URL = next.URL
	updated.Title = next.Title
	if err := s.store.UpdateBookmark(ctx, &updated); err != nil {
		return nil, err
	}

	publish(s.feed, s.logger, changefeed.TableBookmarks, changefeed.EventUpdate, userID, &updated, old)
	return &updated, nil
}

// DeleteBookmark removes an owned bookmark along with its tag links.
func (s *BookmarkService) DeleteBookmark(ctx context.Context, userID, bookmarkID string) error {
	old, err := ownedBookmark(ctx, s.store, userID, bookmarkID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBookmark(ctx, bookmarkID); err != nil {
		return err
	}

	s.logger.Info("bookmark deleted", "user_id", userID, "bookmark_id", bookmarkID)
	publish(s.feed, s.logger, changefeed.TableBookmarks, changefeed.EventDelete, userID, nil, old)
	return nil
}

// AddTag applies an owned tag to an owned bookmark. Applying a tag twice succeeds.
func (s *BookmarkService) AddTag(ctx context.Context, userID, bookmarkID, tagID string) error {
	if _, err := ownedBookmark(ctx, s.store, userID, bookmarkID); err != nil {
		return err
	}
	if _, err := ownedTag(ctx, s.store, userID, tagID); err != nil {
		return err
	}

	bt := domain.BookmarkTag{BookmarkID: bookmarkID, TagID: tagID}
	if err := s.store.AddBookmarkTag(ctx, bt); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		return err
	}

	publish(s.feed, s.logger, changefeed.TableBookmarkTags, changefeed.EventInsert, userID, bt, nil)
	return nil
}

// RemoveTag detaches a tag from an owned bookmark. Removing an absent link succeeds.
func (s *BookmarkService) RemoveTag(ctx context.Context, userID, bookmarkID, tagID string) error {
	if _, err := ownedBookmark(ctx, s.store, userID, bookmarkID); err != nil {
		return err
	}

	bt := domain.BookmarkTag{BookmarkID: bookmarkID, TagID: tagID}
	if err := s.store.RemoveBookmarkTag(ctx, bt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	publish(s.feed, s.logger, changefeed.TableBookmarkTags, changefeed.EventDelete, userID, nil, bt)
	return nil
}
