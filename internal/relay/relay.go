// Package relay broadcasts bookmark changes between clients of the same user
// without a server round trip.
//
// A Relay opens handles on named channels. Publish on a handle reaches every
// other open handle on the same channel and never the publisher itself.
// Nothing is persisted and there is no ordering guarantee across publishers.
// The transport does not scope messages to a user: receivers must check
// Message.UserID themselves.
package relay

import (
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
)

// DefaultChannel is the channel every client of the application joins.
const DefaultChannel = "bookmarks-sync"

// KindBookmarkChanged is the only message kind currently defined.
const KindBookmarkChanged = "BOOKMARK_CHANGED"

// Message is a change notification exchanged over the relay.
type Message struct {
	Kind       string           `json:"kind"`
	UserID     string           `json:"userId"`
	Action     domain.Action    `json:"action"`
	Bookmark   *domain.Bookmark `json:"bookmark,omitempty"`
	BookmarkID string           `json:"bookmarkId,omitempty"`
}

// BookmarkChanged builds a message for a bookmark mutation.
func BookmarkChanged(userID string, action domain.Action, b *domain.Bookmark, bookmarkID string) Message {
	if bookmarkID == "" && b != nil {
		bookmarkID = b.ID
	}
	return Message{
		Kind:       KindBookmarkChanged,
		UserID:     userID,
		Action:     action,
		Bookmark:   b,
		BookmarkID: bookmarkID,
	}
}

// Relay opens handles on named channels.
type Relay interface {
	Open(channel string) Handle
}

// Handle is one participant on a channel.
type Handle interface {
	// Publish sends msg to every other handle on the channel. It never blocks
	// on receivers and never reports failure.
	Publish(msg Message)
	// OnMessage sets the callback for incoming messages, replacing any previous one.
	// Callbacks run on a goroutine owned by the handle, one message at a time.
	OnMessage(fn func(Message))
	// Close leaves the channel. It is safe to call more than once.
	Close() error
}

// Noop returns a relay whose handles drop everything. It stands in when no
// broadcast transport is available.
func Noop() Relay {
	return noopRelay{}
}

type noopRelay struct{}

func (noopRelay) Open(string) Handle { return noopHandle{} }

type noopHandle struct{}

func (noopHandle) Publish(Message) {}
func (noopHandle) OnMessage(func(Message)) {}
func (noopHandle) Close() error { return nil }
