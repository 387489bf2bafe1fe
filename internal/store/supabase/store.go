// Package supabase implements store.Store over the Supabase PostgREST API.
// Row-level security is bypassed with the service key, so every query
// filters by owner explicitly where the table carries one.
package supabase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smartbookmarks/smartbookmarks/internal/store"
	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

// Table names as exposed by PostgREST.
const (
	tableBookmarks           = "bookmarks"
	tableTags                = "tags"
	tableBookmarkTags        = "bookmark_tags"
	tableSharedCollections   = "shared_collections"
	tableCollectionBookmarks = "collection_bookmarks"
)

var _ store.Store = (*Store)(nil)

// Store talks to a hosted Postgres through PostgREST.
type Store struct {
	client *supa.Client
	logger *slog.Logger
}

// Open creates a client for the project at url using the service key.
func Open(url, serviceKey string, logger *slog.Logger) (*Store, error) {
	client, err := supa.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return New(client, logger), nil
}

// New wraps an existing client.
func New(client *supa.Client, logger *slog.Logger) *Store {
	return &Store{client: client, logger: logger}
}

// Client exposes the underlying client for the auth verifier.
func (s *Store) Client() *supa.Client {
	return s.client
}

// Close is a no-op; the HTTP client holds no persistent resources.
func (s *Store) Close() error { return nil }

// Ping issues a minimal select against the bookmarks table.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.client.From(tableBookmarks).Select("id", "", false).Limit(1, "").Execute()
	if err != nil {
		return mapError(err, "ping")
	}
	return nil
}

func (s *Store) from(table string) *postgrest.QueryBuilder {
	return s.client.From(table)
}

// run executes the builder into dest after checking ctx. postgrest-go has no
// context-aware execute, so cancellation is only honored before the request.
func run(ctx context.Context, fb *postgrest.FilterBuilder, dest any, what string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := fb.ExecuteTo(dest); err != nil {
		return mapError(err, what)
	}
	return nil
}

// mapError translates PostgREST error codes into store errors.
func mapError(err error, what string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "23505"):
		return store.ErrAlreadyExists.WithMessage(what + " already exists").WithCause(err)
	case strings.Contains(msg, "23503"), strings.Contains(msg, "PGRST116"):
		return store.ErrNotFound.WithMessage(what + " not found").WithCause(err)
	case strings.Contains(msg, "22P02"), strings.Contains(msg, "23502"):
		return store.ErrInvalidInput.WithCause(err)
	}
	return store.ErrUnavailable.WithMessage(what + " request failed").WithCause(err)
}

func desc() *postgrest.OrderOpts {
	return &postgrest.OrderOpts{Ascending: false}
}

func asc() *postgrest.OrderOpts {
	return &postgrest.OrderOpts{Ascending: true}
}
