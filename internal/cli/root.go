// Package cli implements the bookmarks command line client.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/smartbookmarks/smartbookmarks/internal/client"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/logger"
	"github.com/smartbookmarks/smartbookmarks/internal/relay"
)

// Environment variables read for flag defaults.
const (
	EnvServer   = "BOOKMARKS_SERVER"
	EnvToken    = "BOOKMARKS_TOKEN"
	EnvRedisURL = "REDIS_URL"
)

const defaultServer = "http://localhost:8080"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server   string
	Token    string
	RedisURL string
	Channel  string
	Format   string // "text" | "json"
	Verbose  bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the bookmarks CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "Smart Bookmarks client",
		Long: `Manage bookmarks, tags and shared collections on a Smart Bookmarks server.

The server address and access token come from --server and --token, or from
the BOOKMARKS_SERVER and BOOKMARKS_TOKEN environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitUsage, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Server, "server", envOr(EnvServer, defaultServer), "server base URL")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv(EnvToken), "access token")
	cmd.PersistentFlags().StringVar(&opts.RedisURL, "redis-url", os.Getenv(EnvRedisURL), "Redis URL for instant updates between clients")
	cmd.PersistentFlags().StringVar(&opts.Channel, "relay-channel", relay.DefaultChannel, "broadcast relay channel")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewTagCommand(opts))
	cmd.AddCommand(NewShareCommand(opts))
	cmd.AddCommand(NewTitleCommand(opts))

	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// logger writes diagnostics to the command's stderr.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return logger.New(logger.Config{
		Writer: cmd.ErrOrStderr(),
		Format: logger.FormatPretty,
		Level:  level,
	}).Logger
}

// client returns an API client. Commands that need a user fail early
// without a token.
func (o *RootOptions) client(cmd *cobra.Command, requireToken bool) (*client.Client, error) {
	if requireToken && o.Token == "" {
		return nil, NewExitError(ExitAuth, "no access token: pass --token or set "+EnvToken)
	}
	return client.New(o.Server, o.Token, client.WithLogger(o.logger(cmd))), nil
}

// openRelay joins the broadcast channel. Without a Redis URL there is nobody
// to talk to and the no-op relay is returned.
func (o *RootOptions) openRelay(ctx context.Context, cmd *cobra.Command) (relay.Handle, func()) {
	if o.RedisURL == "" {
		return relay.Noop().Open(o.Channel), func() {}
	}
	r := relay.OpenRedis(ctx, o.RedisURL, o.logger(cmd), nil)
	h := r.Open(o.Channel)
	return h, func() {
		_ = h.Close()
		if rc, ok := r.(*relay.Redis); ok {
			_ = rc.Close()
		}
	}
}

// announce tells the user's other clients about a mutation made here.
// It is best effort: relay problems are logged and never fail the command.
func (o *RootOptions) announce(ctx context.Context, cmd *cobra.Command, c *client.Client, action domain.Action, b *domain.Bookmark, bookmarkID string) {
	if o.RedisURL == "" {
		return
	}
	userID, err := c.Session(ctx)
	if err != nil {
		o.logger(cmd).Debug("skipping relay broadcast", "error", err)
		return
	}
	h, closeRelay := o.openRelay(ctx, cmd)
	defer closeRelay()
	h.Publish(relay.BookmarkChanged(userID, action, b, bookmarkID))
}
