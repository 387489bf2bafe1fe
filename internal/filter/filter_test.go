package filter

import (
	"testing"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/stretchr/testify/assert"
)

func entry(id, title, url string, tagIDs ...string) domain.BookmarkWithTags {
	tags := make([]domain.Tag, 0, len(tagIDs))
	for _, t := range tagIDs {
		tags = append(tags, domain.Tag{ID: t, Name: t})
	}
	return domain.BookmarkWithTags{
		Bookmark: domain.Bookmark{ID: id, Title: title, URL: url},
		Tags:     tags,
	}
}

func ids(entries []domain.BookmarkWithTags) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func sample() []domain.BookmarkWithTags {
	return []domain.BookmarkWithTags{
		entry("1", "GitHub", "https://github.com"),
		entry("2", "Example", "https://example.com", "t1"),
	}
}

func TestApply_Scenario(t *testing.T) {
	entries := sample()

	assert.Equal(t, []string{"1"}, ids(Apply(entries, "hub", nil)))
	assert.Equal(t, []string{"2"}, ids(Apply(entries, "", []string{"t1"})))
}

func TestApply_EmptyQueryKeepsOrder(t *testing.T) {
	entries := []domain.BookmarkWithTags{
		entry("3", "c", "https://c.test"),
		entry("1", "a", "https://a.test"),
		entry("2", "b", "https://b.test"),
	}

	assert.Equal(t, []string{"3", "1", "2"}, ids(Apply(entries, "", nil)))
	assert.Equal(t, []string{"3", "1", "2"}, ids(Apply(entries, "   \t", []string{})))
}

func TestApply_CaseInsensitive(t *testing.T) {
	entries := []domain.BookmarkWithTags{
		entry("1", "Go Blog", "https://go.dev/blog"),
		entry("2", "Rust", "https://www.RUST-lang.org"),
		entry("3", "Straße", "https://de.test"),
	}

	assert.Equal(t, []string{"1"}, ids(Apply(entries, "BLOG", nil)))
	assert.Equal(t, []string{"2"}, ids(Apply(entries, "rust-LANG", nil)), "matches URL")
	assert.Equal(t, []string{"3"}, ids(Apply(entries, "STRASSE", nil)), "full case folding")
}

func TestApply_TagsUseAndSemantics(t *testing.T) {
	entries := []domain.BookmarkWithTags{
		entry("1", "one", "https://1.test", "a"),
		entry("2", "two", "https://2.test", "a", "b"),
		entry("3", "three", "https://3.test", "b", "c", "a"),
	}

	assert.Equal(t, []string{"2", "3"}, ids(Apply(entries, "", []string{"a", "b"})))
	assert.Empty(t, Apply(entries, "", []string{"a", "missing"}))
}

func TestApply_QueryAndTagsIntersect(t *testing.T) {
	entries := []domain.BookmarkWithTags{
		entry("1", "Go docs", "https://go.dev", "ref"),
		entry("2", "Go tour", "https://go.dev/tour"),
		entry("3", "Python docs", "https://python.org", "ref"),
	}

	assert.Equal(t, []string{"1"}, ids(Apply(entries, "go", []string{"ref"})))
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	entries := sample()
	_ = Apply(entries, "example", nil)

	assert.Equal(t, []string{"1", "2"}, ids(entries))
}

func TestMatcher_Reuse(t *testing.T) {
	m := NewMatcher("EXAMPLE", nil)
	entries := sample()

	assert.False(t, m.Match(&entries[0]))
	assert.True(t, m.Match(&entries[1]))
}
