package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the longest title, in characters, a bookmark may carry.
const MaxTitleLength = 100

// Bookmark is a saved URL owned by exactly one user.
// ID is assigned by the store on creation and never changes afterwards.
type Bookmark struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidTitle reports whether title is non-blank and within MaxTitleLength characters.
func ValidTitle(title string) bool {
	if strings.TrimSpace(title) == "" {
		return false
	}
	return utf8.RuneCountInString(title) <= MaxTitleLength
}

// BookmarkTag links a tag to a bookmark. It has no identity of its own.
type BookmarkTag struct {
	BookmarkID string `json:"bookmark_id"`
	TagID      string `json:"tag_id"`
}

// BookmarkWithTags is a bookmark joined with the tags currently applied to it.
// Tags are ordered by name and never contain the same tag ID twice.
// It is a read projection and is never persisted.
type BookmarkWithTags struct {
	Bookmark
	Tags []Tag `json:"tags"`
}

// HasTag reports whether the tag with the given ID is applied.
func (b *BookmarkWithTags) HasTag(tagID string) bool {
	for i := range b.Tags {
		if b.Tags[i].ID == tagID {
			return true
		}
	}
	return false
}

// JoinTags builds BookmarkWithTags entries from bookmarks, their associations,
// and the tag set. Bookmark order is preserved. Associations pointing at
// unknown tags are skipped, as are duplicates.
func JoinTags(bookmarks []Bookmark, links []BookmarkTag, tags []Tag) []BookmarkWithTags {
	byID := make(map[string]Tag, len(tags))
	for _, t := range tags {
		byID[t.ID] = t
	}

	applied := make(map[string][]Tag, len(bookmarks))
	seen := make(map[BookmarkTag]struct{}, len(links))
	for _, l := range links {
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		t, ok := byID[l.TagID]
		if !ok {
			continue
		}
		applied[l.BookmarkID] = append(applied[l.BookmarkID], t)
	}

	out := make([]BookmarkWithTags, 0, len(bookmarks))
	for _, b := range bookmarks {
		bt := applied[b.ID]
		if bt == nil {
			bt = []Tag{}
		}
		SortTags(bt)
		out = append(out, BookmarkWithTags{Bookmark: b, Tags: bt})
	}
	return out
}
