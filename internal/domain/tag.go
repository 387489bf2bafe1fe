package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// TagColors is the palette offered when creating a tag. The first entry is the default.
var TagColors = []string{
	"#3B82F6", // blue
	"#10B981", // green
	"#F59E0B", // amber
	"#EF4444", // red
	"#8B5CF6", // purple
	"#EC4899", // pink
	"#14B8A6", // teal
	"#F97316", // orange
}

// DefaultTagColor is used when a tag is created without a color.
func DefaultTagColor() string {
	return TagColors[0]
}

// Tag is a user-scoped label. Names are not required to be unique.
// Color is normally one of TagColors but any string is accepted.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// SortTags orders tags by name, then by ID so equal names stay deterministic.
func SortTags(tags []Tag) {
	slices.SortStableFunc(tags, func(a, b Tag) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// FindTag resolves ref as a tag ID first, then as a name ignoring case.
func FindTag(tags []Tag, ref string) (Tag, bool) {
	if i := slices.IndexFunc(tags, func(t Tag) bool { return t.ID == ref }); i >= 0 {
		return tags[i], true
	}
	if i := slices.IndexFunc(tags, func(t Tag) bool { return strings.EqualFold(t.Name, ref) }); i >= 0 {
		return tags[i], true
	}
	return Tag{}, false
}
