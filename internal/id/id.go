// Package id generates identifiers for stored rows and public share slugs.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes used for generated row identifiers.
const (
	PrefixBookmark   = "bm"
	PrefixTag        = "tag"
	PrefixCollection = "col"
	PrefixToken      = "tok"
)

// SlugAlphabet is the character set of collection slugs (lowercase base36).
const SlugAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// SlugLength is the number of characters in a collection slug.
const SlugLength = 8

// Generate creates a prefixed NanoID, e.g. "bm-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Slug returns a random URL-safe slug for public collection links.
func Slug() (string, error) {
	s, err := gonanoid.Generate(SlugAlphabet, SlugLength)
	if err != nil {
		return "", fmt.Errorf("generate slug: %w", err)
	}
	return s, nil
}
