package domain

import "time"

// SharedCollection is a named, publicly addressable subset of a user's bookmarks.
// Slug is random, URL-safe and unique across all users.
type SharedCollection struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (c *SharedCollection) Touch() {
	c.UpdatedAt = time.Now()
}

// CollectionBookmark places a bookmark inside a collection.
// Members display by ascending SortOrder; ties keep insertion order.
type CollectionBookmark struct {
	CollectionID string `json:"collection_id"`
	BookmarkID   string `json:"bookmark_id"`
	SortOrder    int    `json:"sort_order"`
}
