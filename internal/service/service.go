// Package service holds the bookmark, tag and sharing use cases. Services
// enforce ownership, validate input, write through the store, and publish a
// change for every committed mutation.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/smartbookmarks/smartbookmarks/internal/changefeed"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	domainerrors "github.com/smartbookmarks/smartbookmarks/internal/errors"
	"github.com/smartbookmarks/smartbookmarks/internal/store"
)

// publish encodes and hands a change to the feed. Encoding failures are
// logged; the mutation itself has already committed.
func publish(feed changefeed.Publisher, logger *slog.Logger, table changefeed.Table, et changefeed.EventType, ownerID string, newRow, oldRow any) {
	c, err := changefeed.NewChange(table, et, ownerID, newRow, oldRow)
	if err != nil {
		logger.Error("failed to encode change",
			"table", string(table),
			"event", string(et),
			"error", err,
		)
		return
	}
	feed.Publish(c)
}

// ownedBookmark loads a bookmark and hides other users' rows as not found.
func ownedBookmark(ctx context.Context, s store.Store, userID, bookmarkID string) (*domain.Bookmark, error) {
	b, err := s.GetBookmark(ctx, bookmarkID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && b.UserID != userID) {
		return nil, domainerrors.NotFound("bookmark not found")
	}
	return b, err
}

func ownedTag(ctx context.Context, s store.Store, userID, tagID string) (*domain.Tag, error) {
	t, err := s.GetTag(ctx, tagID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && t.UserID != userID) {
		return nil, domainerrors.NotFound("tag not found")
	}
	return t, err
}
