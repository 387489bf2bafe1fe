package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smartbookmarks/smartbookmarks/internal/changefeed"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/reconcile"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Query string
	Tags  []string
	Once  bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow bookmarks as they change",
		Long: `Load your bookmarks and keep the list current as they change on the
server or in your other clients. The filtered list is printed again after
every change. With --redis-url, changes made by other clients on the same
relay show up before the server confirms them.

Example:
  bookmarks watch --tag reading
  bookmarks watch --once --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "text to search for")
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "tag name or ID to require (repeatable)")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "print the reconciled list once and exit")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := opts.client(cmd, true)
	if err != nil {
		return err
	}
	userID, err := c.Session(ctx)
	if err != nil {
		return err
	}

	log := opts.logger(cmd)
	feed := changefeed.NewStreamClient(c.BaseURL(), c.Token(), log)
	handle, closeRelay := opts.openRelay(ctx, cmd)
	defer closeRelay()

	engine := reconcile.NewEngine(userID, c, feed, handle, log)
	defer engine.Close()

	p := opts.printer(cmd.OutOrStdout())
	var mu sync.Mutex
	render := func() {
		mu.Lock()
		defer mu.Unlock()
		if engine.State() != reconcile.StateReady {
			return
		}
		list, err := filterView(engine, opts.Query, opts.Tags)
		if err != nil {
			log.Warn("filter failed", "error", err)
			return
		}
		if !p.json() {
			fmt.Fprintf(p.w, "\n%d bookmark(s)\n", len(list))
		}
		_ = p.bookmarks(list)
	}

	if !opts.Once {
		engine.OnChange(render)
	}

	if err := engine.Start(ctx); err != nil {
		return &ExitError{Code: GetExitCode(err), Message: "load bookmarks", Err: err}
	}

	if opts.Once {
		render()
		return nil
	}

	<-ctx.Done()
	return nil
}

// filterView narrows the reconciled list. Tag references resolve against
// the engine's own tags so names track renames.
func filterView(engine *reconcile.Engine, query string, refs []string) ([]domain.BookmarkWithTags, error) {
	tagIDs := make([]string, 0, len(refs))
	for _, ref := range refs {
		t, ok := engine.Tag(ref)
		if !ok {
			return nil, fmt.Errorf("unknown tag %s", ref)
		}
		tagIDs = append(tagIDs, t.ID)
	}
	return engine.Filter(query, tagIDs), nil
}
