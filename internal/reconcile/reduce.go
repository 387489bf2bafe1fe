// Package reconcile merges bookmark change notifications from the change feed
// and the broadcast relay into one consistent, newest-first bookmark list.
//
// Either channel may deliver a logical change first, twice, or not at all,
// so every transition is idempotent: inserts of known IDs are ignored,
// deletes of unknown IDs are no-ops, and updates blindly overwrite fields.
package reconcile

import (
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
)

// Event is a transport-independent bookmark mutation.
type Event struct {
	Action     domain.Action
	Bookmark   *domain.Bookmark
	BookmarkID string
}

// ID returns the bookmark ID the event refers to.
func (e Event) ID() string {
	if e.BookmarkID != "" {
		return e.BookmarkID
	}
	if e.Bookmark != nil {
		return e.Bookmark.ID
	}
	return ""
}

// Reduce applies ev to entries and returns the resulting list. entries is
// never modified. Events that cannot apply leave the list unchanged:
//
//   - insert of an existing ID
//   - update or delete of a missing ID
//   - insert or update without a bookmark
//   - an unknown action
func Reduce(entries []domain.BookmarkWithTags, ev Event) []domain.BookmarkWithTags {
	id := ev.ID()
	if id == "" {
		return entries
	}
	idx := indexOf(entries, id)

	switch ev.Action {
	case domain.ActionInsert:
		if idx >= 0 || ev.Bookmark == nil {
			return entries
		}
		out := make([]domain.BookmarkWithTags, 0, len(entries)+1)
		out = append(out, domain.BookmarkWithTags{Bookmark: *ev.Bookmark, Tags: []domain.Tag{}})
		return append(out, entries...)

	case domain.ActionUpdate:
		if idx < 0 || ev.Bookmark == nil {
			return entries
		}
		out := make([]domain.BookmarkWithTags, len(entries))
		copy(out, entries)
		updated := *ev.Bookmark
		updated.ID = id
		out[idx] = domain.BookmarkWithTags{Bookmark: updated, Tags: entries[idx].Tags}
		return out

	case domain.ActionDelete:
		if idx < 0 {
			return entries
		}
		out := make([]domain.BookmarkWithTags, 0, len(entries)-1)
		out = append(out, entries[:idx]...)
		return append(out, entries[idx+1:]...)
	}

	return entries
}

func indexOf(entries []domain.BookmarkWithTags, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
