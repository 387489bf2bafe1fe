package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/smartbookmarks/smartbookmarks/internal/changefeed"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/filter"
	"github.com/smartbookmarks/smartbookmarks/internal/relay"
)

// ErrClosed is returned by operations on a closed Engine.
var ErrClosed = errors.New("reconcile: engine closed")

// State is the lifecycle stage of an Engine.
type State int

// Engine lifecycle. Closed is terminal.
const (
	StateIdle State = iota
	StateInitializing
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Loader fetches the rows a full refresh joins together.
// ListBookmarks returns the user's bookmarks newest first.
type Loader interface {
	ListBookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error)
	ListBookmarkTags(ctx context.Context, bookmarkIDs []string) ([]domain.BookmarkTag, error)
	ListTags(ctx context.Context, userID string) ([]domain.Tag, error)
}

// Engine owns the reconciled bookmark list of one user session.
// All methods are safe for concurrent use.
type Engine struct {
	userID string
	loader Loader
	feed   changefeed.Subscriber
	relay  relay.Handle
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	err        error
	entries    []domain.BookmarkWithTags
	tags       []domain.Tag
	pending    []Event
	pendingTag []tagChange
	generation uint64
	subs       []changefeed.Subscription
	ctx        context.Context
	cancel     context.CancelFunc
	onChange   func()
}

// NewEngine creates an idle engine for userID. The relay handle is owned by
// the engine from here on and closed by Close.
func NewEngine(userID string, loader Loader, feed changefeed.Subscriber, handle relay.Handle, logger *slog.Logger) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		userID:  userID,
		loader:  loader,
		feed:    feed,
		relay:   handle,
		logger:  logger.With(slog.String("user_id", userID)),
		entries: []domain.BookmarkWithTags{},
		ctx:     ctx,
		cancel:  cancel,
	}
}

// OnChange registers fn to run after every change to the list or state.
// fn runs without the engine lock held and may call back into the engine.
func (e *Engine) OnChange(fn func()) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// Start attaches both channels and runs the first Initialize.
// Subscription failures are logged; the other channel and later refreshes
// are expected to cover for them.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case StateClosed:
		e.mu.Unlock()
		return ErrClosed
	case StateIdle:
	default:
		e.mu.Unlock()
		return fmt.Errorf("reconcile: engine already started (%s)", e.state)
	}
	base := e.ctx
	e.mu.Unlock()

	e.relay.OnMessage(e.handleRelay)

	handlers := []struct {
		table changefeed.Table
		fn    func(changefeed.Change)
	}{
		{changefeed.TableBookmarks, e.handleBookmarkChange},
		{changefeed.TableBookmarkTags, e.handleAssociationChange},
		{changefeed.TableTags, e.handleTagChange},
	}
	var subs []changefeed.Subscription
	for _, h := range handlers {
		sub, err := e.feed.Subscribe(base, h.table, h.fn)
		if err != nil {
			e.logger.Warn("change feed subscribe failed",
				slog.String("table", string(h.table)),
				slog.String("error", err.Error()))
			continue
		}
		subs = append(subs, sub)
	}

	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		return ErrClosed
	}
	e.subs = append(e.subs, subs...)
	e.mu.Unlock()

	return e.Initialize(ctx)
}

// Initialize replaces the list with a full fetch of the user's bookmarks,
// their tag associations and the user's tags. On failure the list is
// emptied and the error is kept until the next successful Initialize.
// It is never retried automatically.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.state = StateInitializing
	e.generation++
	gen := e.generation
	e.pending = nil
	e.pendingTag = nil
	e.mu.Unlock()
	e.notify()

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		select {
		case <-e.ctx.Done():
			stop()
		case <-ctx.Done():
		}
	}()

	entries, tags, err := e.fetch(ctx)

	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return ErrClosed
	}
	if gen != e.generation {
		// A newer Initialize owns the state now.
		e.mu.Unlock()
		return err
	}
	if err != nil {
		e.state = StateFailed
		e.err = err
		e.entries = []domain.BookmarkWithTags{}
		e.tags = nil
	} else {
		// Changes delivered while fetching may postdate the rows read.
		for _, ev := range e.pending {
			entries = Reduce(entries, ev)
		}
		for _, tc := range e.pendingTag {
			tags, entries = tc.apply(tags, entries)
		}
		e.state = StateReady
		e.err = nil
		e.entries = entries
		e.tags = tags
	}
	e.pending = nil
	e.pendingTag = nil
	e.mu.Unlock()

	if err != nil {
		e.logger.Error("bookmark refresh failed", slog.String("error", err.Error()))
	} else {
		e.logger.Debug("bookmark refresh complete", slog.Int("bookmarks", len(entries)))
	}
	e.notify()
	return err
}

func (e *Engine) fetch(ctx context.Context) ([]domain.BookmarkWithTags, []domain.Tag, error) {
	bookmarks, err := e.loader.ListBookmarks(ctx, e.userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load bookmarks: %w", err)
	}
	slices.SortStableFunc(bookmarks, func(a, b domain.Bookmark) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	var links []domain.BookmarkTag
	if len(bookmarks) > 0 {
		ids := make([]string, len(bookmarks))
		for i := range bookmarks {
			ids[i] = bookmarks[i].ID
		}
		if links, err = e.loader.ListBookmarkTags(ctx, ids); err != nil {
			return nil, nil, fmt.Errorf("load bookmark tags: %w", err)
		}
	}

	tags, err := e.loader.ListTags(ctx, e.userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load tags: %w", err)
	}
	domain.SortTags(tags)

	return domain.JoinTags(bookmarks, links, tags), tags, nil
}

// ApplyChange merges one mutation into the list. It never fails; events
// that do not apply are dropped. Changes are ignored while the engine is
// failed or closed.
func (e *Engine) ApplyChange(action domain.Action, bookmark *domain.Bookmark, bookmarkID string) {
	if e.apply(Event{Action: action, Bookmark: bookmark, BookmarkID: bookmarkID}) {
		e.notify()
	}
}

// Record applies a mutation the user just made through the CRUD gateway and
// broadcasts it on the relay so the user's other clients converge without
// waiting for the change feed.
// It is for clients that mutate through a long-lived engine. One-shot CLI
// commands have no session and publish with relay.BookmarkChanged directly.
func (e *Engine) Record(action domain.Action, bookmark *domain.Bookmark, bookmarkID string) {
	if !e.apply(Event{Action: action, Bookmark: bookmark, BookmarkID: bookmarkID}) {
		return
	}
	e.relay.Publish(relay.BookmarkChanged(e.userID, action, bookmark, bookmarkID))
	e.notify()
}

func (e *Engine) apply(ev Event) bool {
	if !ev.Action.Valid() {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateClosed, StateFailed:
		return false
	case StateInitializing:
		e.pending = append(e.pending, ev)
	}
	e.entries = Reduce(e.entries, ev)
	return true
}

// handleBookmarkChange applies feed events owned by this user and forwards
// them to the relay. Feed events are never sent back to the feed.
func (e *Engine) handleBookmarkChange(c changefeed.Change) {
	action := c.EventType.Action()
	if !action.Valid() {
		e.logger.Debug("ignoring change with unknown event type", slog.String("event_type", string(c.EventType)))
		return
	}
	b, err := c.Bookmark()
	if err != nil {
		e.logger.Warn("ignoring undecodable bookmark change", slog.String("error", err.Error()))
		return
	}
	if b.UserID != e.userID {
		return
	}

	var payload *domain.Bookmark
	if action != domain.ActionDelete {
		payload = b
	}
	if !e.apply(Event{Action: action, Bookmark: payload, BookmarkID: b.ID}) {
		return
	}
	e.relay.Publish(relay.BookmarkChanged(e.userID, action, payload, b.ID))
	e.notify()
}

// handleRelay applies relay messages for this user. They are not rebroadcast.
func (e *Engine) handleRelay(msg relay.Message) {
	if msg.Kind != relay.KindBookmarkChanged || msg.UserID != e.userID {
		return
	}
	if msg.Bookmark != nil && msg.Bookmark.UserID != "" && msg.Bookmark.UserID != e.userID {
		return
	}
	e.ApplyChange(msg.Action, msg.Bookmark, msg.BookmarkID)
}

// handleAssociationChange refetches everything. Association rows carry no
// tag details, so patching in place would need extra lookups; a full
// refresh keeps this simple at the cost of one round of queries per change.
func (e *Engine) handleAssociationChange(changefeed.Change) {
	e.mu.Lock()
	closed := e.state == StateClosed
	e.mu.Unlock()
	if closed {
		return
	}
	if err := e.Initialize(e.ctx); err != nil && !errors.Is(err, ErrClosed) {
		e.logger.Warn("refresh after tag association change failed", slog.String("error", err.Error()))
	}
}

// handleTagChange keeps the tag list and the tags embedded in entries current.
func (e *Engine) handleTagChange(c changefeed.Change) {
	t, err := c.Tag()
	if err != nil {
		e.logger.Warn("ignoring undecodable tag change", slog.String("error", err.Error()))
		return
	}
	if t.UserID != e.userID {
		return
	}

	tc := tagChange{eventType: c.EventType, tag: *t}

	e.mu.Lock()
	switch e.state {
	case StateClosed, StateFailed:
		e.mu.Unlock()
		return
	case StateInitializing:
		e.pendingTag = append(e.pendingTag, tc)
	}
	e.tags, e.entries = tc.apply(e.tags, e.entries)
	e.mu.Unlock()
	e.notify()
}

// tagChange is one tags-table event for the session user.
type tagChange struct {
	eventType changefeed.EventType
	tag       domain.Tag
}

// apply returns the tag list and entries with the change merged in.
// Inputs are not modified.
func (tc tagChange) apply(tags []domain.Tag, entries []domain.BookmarkWithTags) ([]domain.Tag, []domain.BookmarkWithTags) {
	t := tc.tag
	switch tc.eventType {
	case changefeed.EventInsert:
		if !slices.ContainsFunc(tags, func(x domain.Tag) bool { return x.ID == t.ID }) {
			tags = append(slices.Clone(tags), t)
			domain.SortTags(tags)
		}
	case changefeed.EventUpdate:
		tags = replaceTag(tags, t)
		entries = patchEntryTags(entries, t.ID, &t)
	case changefeed.EventDelete:
		tags = slices.DeleteFunc(slices.Clone(tags), func(x domain.Tag) bool { return x.ID == t.ID })
		entries = patchEntryTags(entries, t.ID, nil)
	}
	return tags, entries
}

// patchEntryTags replaces (or with nil removes) tag tagID on every entry.
// Untouched entries share their tag slices with the input.
func patchEntryTags(entries []domain.BookmarkWithTags, tagID string, t *domain.Tag) []domain.BookmarkWithTags {
	out := make([]domain.BookmarkWithTags, len(entries))
	copy(out, entries)
	for i := range out {
		if !out[i].HasTag(tagID) {
			continue
		}
		if t == nil {
			out[i].Tags = slices.DeleteFunc(slices.Clone(out[i].Tags), func(x domain.Tag) bool { return x.ID == tagID })
		} else {
			out[i].Tags = replaceTag(out[i].Tags, *t)
		}
	}
	return out
}

func replaceTag(tags []domain.Tag, t domain.Tag) []domain.Tag {
	out := slices.Clone(tags)
	for i := range out {
		if out[i].ID == t.ID {
			out[i] = t
		}
	}
	domain.SortTags(out)
	return out
}

// Bookmarks returns a copy of the reconciled list, newest first.
func (e *Engine) Bookmarks() []domain.BookmarkWithTags {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.BookmarkWithTags, len(e.entries))
	for i, entry := range e.entries {
		out[i] = domain.BookmarkWithTags{Bookmark: entry.Bookmark, Tags: slices.Clone(entry.Tags)}
	}
	return out
}

// Filter returns the entries matching query and every tag in tagIDs.
func (e *Engine) Filter(query string, tagIDs []string) []domain.BookmarkWithTags {
	return filter.Apply(e.Bookmarks(), query, tagIDs)
}

// Tags returns the user's tags ordered by name.
func (e *Engine) Tags() []domain.Tag {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.tags)
}

// Tag resolves a tag ID or name against the session's current tags.
func (e *Engine) Tag(ref string) (domain.Tag, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.FindTag(e.tags, ref)
}

// State returns the current lifecycle stage.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the error of the last failed Initialize, if the engine is failed.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Close unsubscribes from the change feed and closes the relay handle.
// Nothing is delivered into the engine afterwards. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return nil
	}
	e.state = StateClosed
	e.entries = []domain.BookmarkWithTags{}
	e.pending = nil
	e.pendingTag = nil
	subs := e.subs
	e.subs = nil
	e.cancel()
	e.mu.Unlock()

	var errs []error
	for _, s := range subs {
		if err := s.Unsubscribe(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.relay.Close(); err != nil {
		errs = append(errs, err)
	}
	e.notify()
	return errors.Join(errs...)
}

func (e *Engine) notify() {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}
