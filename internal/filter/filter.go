// Package filter derives search views from a reconciled bookmark list.
package filter

import (
	"strings"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"golang.org/x/text/cases"
)

// Apply returns the entries whose title or URL contains query, ignoring case,
// and which carry every tag in requiredTagIDs. A blank query matches all
// entries. Input order is preserved and entries is never modified.
func Apply(entries []domain.BookmarkWithTags, query string, requiredTagIDs []string) []domain.BookmarkWithTags {
	m := NewMatcher(query, requiredTagIDs)
	out := make([]domain.BookmarkWithTags, 0, len(entries))
	for i := range entries {
		if m.Match(&entries[i]) {
			out = append(out, entries[i])
		}
	}
	return out
}

// Matcher tests single entries against a prepared query.
// A Matcher is not safe for concurrent use.
type Matcher struct {
	fold     cases.Caser
	needle   string
	tagIDs   []string
	matchAll bool
}

// NewMatcher prepares query and requiredTagIDs for repeated matching.
func NewMatcher(query string, requiredTagIDs []string) *Matcher {
	m := &Matcher{fold: cases.Fold(), tagIDs: requiredTagIDs}
	if strings.TrimSpace(query) == "" {
		m.matchAll = true
	} else {
		m.needle = m.fold.String(query)
	}
	return m
}

// Match reports whether entry passes both the text and the tag filter.
func (m *Matcher) Match(entry *domain.BookmarkWithTags) bool {
	return m.matchText(entry) && m.matchTags(entry)
}

func (m *Matcher) matchText(entry *domain.BookmarkWithTags) bool {
	if m.matchAll {
		return true
	}
	return strings.Contains(m.fold.String(entry.Title), m.needle) ||
		strings.Contains(m.fold.String(entry.URL), m.needle)
}

// matchTags uses AND semantics: every required tag must be applied.
func (m *Matcher) matchTags(entry *domain.BookmarkWithTags) bool {
	for _, id := range m.tagIDs {
		if !entry.HasTag(id) {
			return false
		}
	}
	return true
}
