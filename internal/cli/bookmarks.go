package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartbookmarks/smartbookmarks/internal/client"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	domainerrors "github.com/smartbookmarks/smartbookmarks/internal/errors"
	"github.com/smartbookmarks/smartbookmarks/internal/titlefetch"
)

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var title string
	var tags []string

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Save a bookmark",
		Long: `Save a bookmark. Without --title the page title is looked up on the
server; when the lookup cannot run, pass --title yourself.

Example:
  bookmarks add https://go.dev
  bookmarks add https://go.dev --title "Go" --tag lang --tag reading`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}

			if strings.TrimSpace(title) == "" {
				r, err := c.FetchTitle(ctx, args[0])
				switch {
				case errors.Is(err, domainerrors.ErrValidation):
					return err
				case err != nil:
					return &ExitError{Code: GetExitCode(err), Message: "could not look up the page title, pass --title", Err: err}
				}
				title = titlefetch.Truncate(r.Title)
			}

			b, err := c.CreateBookmark(ctx, args[0], title)
			if err != nil {
				return err
			}

			tagIDs, err := resolveTags(ctx, c, tags)
			if err != nil {
				return err
			}
			for _, id := range tagIDs {
				if err := c.AddTag(ctx, b.ID, id); err != nil {
					return err
				}
			}

			rootOpts.announce(ctx, cmd, c, domain.ActionInsert, b, b.ID)
			return rootOpts.printer(cmd.OutOrStdout()).line(b, "Saved %s %q", b.ID, b.Title)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "bookmark title")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag name or ID to apply (repeatable)")

	return cmd
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <bookmark-id>...",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete bookmarks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}
			p := rootOpts.printer(cmd.OutOrStdout())
			for _, id := range args {
				if err := c.DeleteBookmark(ctx, id); err != nil {
					return err
				}
				rootOpts.announce(ctx, cmd, c, domain.ActionDelete, nil, id)
				if err := p.line(map[string]string{"deleted": id}, "Deleted %s", id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	var patch client.BookmarkPatch
	var newURL, newTitle string

	cmd := &cobra.Command{
		Use:   "edit <bookmark-id>",
		Short: "Change a bookmark's URL or title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("url") {
				patch.URL = &newURL
			}
			if cmd.Flags().Changed("title") {
				patch.Title = &newTitle
			}
			if patch.URL == nil && patch.Title == nil {
				return NewExitError(ExitUsage, "nothing to change: pass --url and/or --title")
			}

			ctx := cmd.Context()
			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}
			b, err := c.UpdateBookmark(ctx, args[0], patch)
			if err != nil {
				return err
			}
			rootOpts.announce(ctx, cmd, c, domain.ActionUpdate, b, b.ID)
			return rootOpts.printer(cmd.OutOrStdout()).line(b, "Updated %s %q", b.ID, b.Title)
		},
	}

	cmd.Flags().StringVar(&newURL, "url", "", "new URL")
	cmd.Flags().StringVarP(&newTitle, "title", "t", "", "new title")

	return cmd
}

// NewListCommand creates the ls command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var query string
	var tags []string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List bookmarks",
		Long: `List bookmarks, newest first. --query matches title and URL ignoring
case; every --tag must be applied.

Example:
  bookmarks ls --query golang --tag reading`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rootOpts.client(cmd, true)
			if err != nil {
				return err
			}
			tagIDs, err := resolveTags(ctx, c, tags)
			if err != nil {
				return err
			}
			list, err := c.SearchBookmarks(ctx, query, tagIDs)
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd.OutOrStdout()).bookmarks(list)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "text to search for")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag name or ID to require (repeatable)")

	return cmd
}

// resolveTags maps tag names or IDs to IDs. Names match ignoring case.
func resolveTags(ctx context.Context, c *client.Client, refs []string) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	all, err := c.ListTags(ctx, "")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		t, ok := domain.FindTag(all, ref)
		if !ok {
			return nil, &ExitError{Code: ExitNotFound, Message: "unknown tag " + ref}
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}
