// Package main provides a tool to seed a local database with sample bookmarks.
//
// This creates a handful of tags and bookmarks for one user so the CLI and
// the change stream have something to show.
//
// Usage:
//
//	DB_PATH=~/.smartbookmarks/bookmarks.db go run ./cmd/seed --user u1
//	DB_PATH=/tmp/bookmarks.db go run ./cmd/seed --user u1 --count 50
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/smartbookmarks/smartbookmarks/internal/changefeed"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/logger"
	"github.com/smartbookmarks/smartbookmarks/internal/service"
	"github.com/smartbookmarks/smartbookmarks/internal/store/sqlite"
)

var (
	userID = flag.String("user", "", "User ID to own the seeded rows (required)")
	count  = flag.Int("count", 20, "Number of bookmarks to create")
)

var sampleTags = []string{"go", "reading", "tools", "design", "later"}

var sampleSites = []struct {
	url   string
	title string
}{
	{"https://go.dev", "The Go Programming Language"},
	{"https://pkg.go.dev", "Go Packages"},
	{"https://sqlite.org", "SQLite Home Page"},
	{"https://redis.io", "Redis"},
	{"https://supabase.com", "Supabase"},
	{"https://prometheus.io", "Prometheus"},
	{"https://developer.mozilla.org", "MDN Web Docs"},
	{"https://news.ycombinator.com", "Hacker News"},
}

func main() {
	flag.Parse()

	if *userID == "" {
		log.Fatal("--user is required")
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/.smartbookmarks/bookmarks.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	quiet := logger.Discard()
	bookmarks := service.NewBookmarkService(s, changefeed.NopPublisher{}, quiet)
	tags := service.NewTagService(s, changefeed.NopPublisher{}, quiet)

	created := make([]*domain.Tag, 0, len(sampleTags))
	for i, name := range sampleTags {
		t, err := tags.CreateTag(ctx, *userID, service.CreateTagInput{
			Name:  name,
			Color: domain.TagColors[i%len(domain.TagColors)],
		})
		if err != nil {
			log.Printf("Failed to create tag %q: %v", name, err)
			continue
		}
		created = append(created, t)
	}
	fmt.Printf("Created %d tags\n", len(created))

	links := 0
	for i := range *count {
		site := sampleSites[i%len(sampleSites)]
		url := site.url
		if i >= len(sampleSites) {
			url = fmt.Sprintf("%s/?seed=%d", site.url, i)
		}

		b, err := bookmarks.CreateBookmark(ctx, *userID, service.CreateBookmarkInput{URL: url, Title: site.title})
		if err != nil {
			log.Printf("Failed to create bookmark: %v", err)
			continue
		}

		// Up to two random tags per bookmark
		for range rand.IntN(3) {
			if len(created) == 0 {
				break
			}
			t := created[rand.IntN(len(created))]
			if err := bookmarks.AddTag(ctx, *userID, b.ID, t.ID); err != nil {
				log.Printf("Failed to tag bookmark: %v", err)
				continue
			}
			links++
		}
	}

	fmt.Printf("Created %d bookmarks with %d tag links for %s\n", *count, links, *userID)
}
