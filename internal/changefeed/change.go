// Package changefeed delivers row-level change notifications for the bookmark tables.
//
// The server side is a Hub that services publish to after each committed
// mutation, streamed to HTTP clients as Server-Sent Events. StreamClient
// consumes that stream. Both satisfy Subscriber. Delivery is asynchronous,
// duplicates are possible, and no ordering is promised across subscriptions.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
)

// Table names a table whose changes are published.
type Table string

// Published tables.
const (
	TableBookmarks    Table = "bookmarks"
	TableBookmarkTags Table = "bookmark_tags"
	TableTags         Table = "tags"
	TableCollections  Table = "shared_collections"
)

// Valid reports whether t is a published table.
func (t Table) Valid() bool {
	switch t {
	case TableBookmarks, TableBookmarkTags, TableTags, TableCollections:
		return true
	}
	return false
}

// EventType is the kind of row change.
type EventType string

// Row change kinds.
const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Action maps the row change kind to the reconciliation action.
func (e EventType) Action() domain.Action {
	switch e {
	case EventInsert:
		return domain.ActionInsert
	case EventUpdate:
		return domain.ActionUpdate
	case EventDelete:
		return domain.ActionDelete
	}
	return ""
}

// Change is one row-level notification. New holds the row after INSERT and
// UPDATE, Old holds the row before UPDATE and DELETE.
type Change struct {
	Table           Table           `json:"table"`
	EventType       EventType       `json:"eventType"`
	New             json.RawMessage `json:"new,omitempty"`
	Old             json.RawMessage `json:"old,omitempty"`
	CommitTimestamp time.Time       `json:"commit_timestamp"`

	// OwnerID routes the change to the owner's streams. Never serialized.
	OwnerID string `json:"-"`
}

// NewChange encodes the row images of a change. Either row may be nil.
func NewChange(table Table, eventType EventType, ownerID string, newRow, oldRow any) (Change, error) {
	c := Change{
		Table:           table,
		EventType:       eventType,
		CommitTimestamp: time.Now().UTC(),
		OwnerID:         ownerID,
	}
	var err error
	if newRow != nil {
		if c.New, err = json.Marshal(newRow); err != nil {
			return Change{}, fmt.Errorf("encode new row: %w", err)
		}
	}
	if oldRow != nil {
		if c.Old, err = json.Marshal(oldRow); err != nil {
			return Change{}, fmt.Errorf("encode old row: %w", err)
		}
	}
	return c, nil
}

// Row decodes the most recent row image into v: New when present, else Old.
func (c Change) Row(v any) error {
	raw := c.New
	if len(raw) == 0 {
		raw = c.Old
	}
	if len(raw) == 0 {
		return fmt.Errorf("%s %s change carries no row", c.Table, c.EventType)
	}
	return json.Unmarshal(raw, v)
}

// Bookmark decodes the row of a bookmarks change.
func (c Change) Bookmark() (*domain.Bookmark, error) {
	var b domain.Bookmark
	if err := c.Row(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Tag decodes the row of a tags change.
func (c Change) Tag() (*domain.Tag, error) {
	var t domain.Tag
	if err := c.Row(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Subscriber delivers changes for one table to a callback.
// There is no server-side tenant filter in this contract; receivers that
// need one must check ownership themselves.
type Subscriber interface {
	Subscribe(ctx context.Context, table Table, onEvent func(Change)) (Subscription, error)
}

// Subscription stops delivery when unsubscribed. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe() error
}

// Publisher accepts committed changes for fan-out.
type Publisher interface {
	Publish(c Change)
}

// NopPublisher discards changes.
type NopPublisher struct{}

// Publish implements Publisher as a no-op.
func (NopPublisher) Publish(Change) {}
