package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartbookmarks/smartbookmarks/internal/api"
	"github.com/smartbookmarks/smartbookmarks/internal/auth"
	"github.com/smartbookmarks/smartbookmarks/internal/changefeed"
	"github.com/smartbookmarks/smartbookmarks/internal/cli"
	"github.com/smartbookmarks/smartbookmarks/internal/config"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	domainerrors "github.com/smartbookmarks/smartbookmarks/internal/errors"
	"github.com/smartbookmarks/smartbookmarks/internal/logger"
	"github.com/smartbookmarks/smartbookmarks/internal/relay"
	"github.com/smartbookmarks/smartbookmarks/internal/service"
	"github.com/smartbookmarks/smartbookmarks/internal/store/sqlite"
	"github.com/smartbookmarks/smartbookmarks/internal/titlefetch"
)

type env struct {
	url    string
	tokens *auth.TokenService
}

// stubTitles answers every lookup with the same title.
type stubTitles struct{ title string }

func (s stubTitles) Fetch(_ context.Context, raw string) (titlefetch.Result, error) {
	if _, err := titlefetch.ParseURL(raw); err != nil {
		return titlefetch.Result{}, err
	}
	return titlefetch.Result{Title: s.title, Source: titlefetch.SourceFetched}, nil
}

func setup(t *testing.T) *env {
	t.Helper()
	log := logger.Discard()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tokens, err := auth.NewTokenService([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)

	hub := changefeed.NewHub(log, nil)
	ctx, cancel := context.WithCancel(context.Background())
	hub.Start(ctx)
	t.Cleanup(func() {
		_ = hub.Shutdown(context.Background())
		cancel()
	})

	srv := api.NewServer(config.ServerConfig{}, api.Deps{
		Store: st,
		Services: &api.Services{
			Bookmark: service.NewBookmarkService(st, hub, log),
			Tag:      service.NewTagService(st, hub, log),
			Sharing:  service.NewSharingService(st, hub, log),
			Titles:   stubTitles{title: "Fetched Title"},
		},
		Verifier: tokens,
		Changes:  changefeed.NewHandler(hub, auth.Identify(tokens), log),
	}, log)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &env{url: ts.URL, tokens: tokens}
}

// run executes the CLI as userID and returns stdout.
func (e *env) run(t *testing.T, userID string, args ...string) (string, error) {
	t.Helper()
	token := ""
	if userID != "" {
		var err error
		token, err = e.tokens.GenerateAccessToken(userID)
		require.NoError(t, err)
	}

	cmd := cli.NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--server", e.url, "--token", token, "--redis-url", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *env) runJSON(t *testing.T, userID string, v any, args ...string) {
	t.Helper()
	out, err := e.run(t, userID, append(args, "--format", "json")...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := cli.NewRootCommand()
	for _, name := range []string{"token", "add", "rm", "edit", "ls", "watch", "tag", "share", "title"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	e := setup(t)
	_, err := e.run(t, "u1", "ls", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, cli.ExitUsage, cli.GetExitCode(err))
}

func TestAdd_FetchesTitleWhenMissing(t *testing.T) {
	e := setup(t)

	var b domain.Bookmark
	e.runJSON(t, "u1", &b, "add", "https://go.dev")
	assert.Equal(t, "Fetched Title", b.Title)
	assert.Equal(t, "https://go.dev", b.URL)

	var manual domain.Bookmark
	e.runJSON(t, "u1", &manual, "add", "https://pkg.go.dev", "--title", "Packages")
	assert.Equal(t, "Packages", manual.Title)
}

func TestAdd_InvalidURL(t *testing.T) {
	e := setup(t)
	_, err := e.run(t, "u1", "add", "not a url")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, cli.ExitUsage, cli.GetExitCode(err))
}

func TestAdd_RequiresToken(t *testing.T) {
	e := setup(t)
	_, err := e.run(t, "", "add", "https://go.dev")
	require.Error(t, err)
	assert.Equal(t, cli.ExitAuth, cli.GetExitCode(err))
}

func TestBookmarkAndTagWorkflow(t *testing.T) {
	e := setup(t)

	var tag domain.Tag
	e.runJSON(t, "u1", &tag, "tag", "add", "Reading", "--color", "#10B981")
	assert.Equal(t, "#10B981", tag.Color)

	var b domain.Bookmark
	e.runJSON(t, "u1", &b, "add", "https://go.dev", "--title", "Go", "--tag", "reading")
	e.runJSON(t, "u1", new(domain.Bookmark), "add", "https://example.com", "--title", "Example")

	var tagged []domain.BookmarkWithTags
	e.runJSON(t, "u1", &tagged, "ls", "--tag", "READING")
	require.Len(t, tagged, 1)
	assert.Equal(t, b.ID, tagged[0].ID)
	assert.Equal(t, "Reading", tagged[0].Tags[0].Name)

	var searched []domain.BookmarkWithTags
	e.runJSON(t, "u1", &searched, "ls", "-q", "EXAMPLE")
	require.Len(t, searched, 1)
	assert.Equal(t, "Example", searched[0].Title)

	var edited domain.Bookmark
	e.runJSON(t, "u1", &edited, "edit", b.ID, "--title", "Go home")
	assert.Equal(t, "Go home", edited.Title)

	_, err := e.run(t, "u1", "tag", "unapply", b.ID, tag.ID)
	require.NoError(t, err)
	e.runJSON(t, "u1", &tagged, "ls", "--tag", tag.ID)
	assert.Empty(t, tagged)

	_, err = e.run(t, "u1", "rm", b.ID)
	require.NoError(t, err)

	var all []domain.BookmarkWithTags
	e.runJSON(t, "u1", &all, "ls")
	assert.Len(t, all, 1)

	_, err = e.run(t, "u1", "ls", "--tag", "nope")
	assert.Equal(t, cli.ExitNotFound, cli.GetExitCode(err))
}

func TestEdit_RequiresChange(t *testing.T) {
	e := setup(t)
	_, err := e.run(t, "u1", "edit", "bm_x")
	assert.Equal(t, cli.ExitUsage, cli.GetExitCode(err))
}

func TestRemove_ForeignBookmark(t *testing.T) {
	e := setup(t)

	var b domain.Bookmark
	e.runJSON(t, "owner", &b, "add", "https://go.dev", "--title", "Go")

	_, err := e.run(t, "intruder", "rm", b.ID)
	require.Error(t, err)
	assert.Equal(t, cli.ExitNotFound, cli.GetExitCode(err))
}

func TestTextOutput(t *testing.T) {
	e := setup(t)

	_, err := e.run(t, "u1", "add", "https://go.dev", "--title", "Go")
	require.NoError(t, err)

	out, err := e.run(t, "u1", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "https://go.dev")

	out, err = e.run(t, "u1", "tag", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No tags.")
}

func TestShareWorkflow(t *testing.T) {
	e := setup(t)

	var a, b domain.Bookmark
	e.runJSON(t, "u1", &a, "add", "https://a.example.com", "--title", "A")
	e.runJSON(t, "u1", &b, "add", "https://b.example.com", "--title", "B")

	var col struct {
		domain.SharedCollection
		BookmarkIDs []string `json:"bookmark_ids"`
	}
	e.runJSON(t, "u1", &col, "share", "create", "Picks", b.ID, a.ID, "-d", "Two links")
	assert.True(t, col.IsPublic)
	assert.Equal(t, []string{b.ID, a.ID}, col.BookmarkIDs)

	var public struct {
		Name      string            `json:"name"`
		Bookmarks []domain.Bookmark `json:"bookmarks"`
	}
	out, err := e.run(t, "", "share", "show", col.Slug, "--format", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &public))
	require.Len(t, public.Bookmarks, 2)
	assert.Equal(t, "B", public.Bookmarks[0].Title)

	_, err = e.run(t, "u1", "share", "edit", col.ID, "--public=false")
	require.NoError(t, err)
	_, err = e.run(t, "", "share", "show", col.Slug)
	assert.Equal(t, cli.ExitNotFound, cli.GetExitCode(err))

	out, err = e.run(t, "u1", "share", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Picks")

	_, err = e.run(t, "u1", "share", "rm", col.ID)
	require.NoError(t, err)
}

func TestTitle(t *testing.T) {
	e := setup(t)

	var r titlefetch.Result
	e.runJSON(t, "u1", &r, "title", "https://go.dev")
	assert.Equal(t, "Fetched Title", r.Title)
}

func TestToken_IssuesVerifiableToken(t *testing.T) {
	dir := t.TempDir()

	cmd := cli.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "alice", "--data-path", dir, "--key", ""})
	require.NoError(t, cmd.Execute())

	key, err := auth.LoadOrGenerateKey(dir, "")
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	userID, err := tokens.VerifyAccessToken(context.Background(), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)
}

func TestWatch_Once(t *testing.T) {
	e := setup(t)

	e.runJSON(t, "u1", new(domain.Bookmark), "add", "https://go.dev", "--title", "Go")
	e.runJSON(t, "u1", new(domain.Bookmark), "add", "https://example.com", "--title", "Example")

	var list []domain.BookmarkWithTags
	e.runJSON(t, "u1", &list, "watch", "--once", "-q", "go")
	require.Len(t, list, 1)
	assert.Equal(t, "Go", list[0].Title)
}

func TestAdd_AnnouncesOnRelay(t *testing.T) {
	e := setup(t)
	mr := miniredis.RunT(t)
	redisURL := "redis://" + mr.Addr()

	listener := relay.OpenRedis(context.Background(), redisURL, logger.Discard(), nil)
	h := listener.Open(relay.DefaultChannel)
	t.Cleanup(func() {
		_ = h.Close()
		if r, ok := listener.(*relay.Redis); ok {
			_ = r.Close()
		}
	})

	got := make(chan relay.Message, 1)
	h.OnMessage(func(m relay.Message) { got <- m })

	token, err := e.tokens.GenerateAccessToken("u1")
	require.NoError(t, err)

	cmd := cli.NewRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"--server", e.url, "--token", token, "--redis-url", redisURL, "add", "https://go.dev", "--title", "Go"})
	require.NoError(t, cmd.Execute())

	select {
	case m := <-got:
		assert.Equal(t, "u1", m.UserID)
		assert.Equal(t, domain.ActionInsert, m.Action)
		require.NotNil(t, m.Bookmark)
		assert.Equal(t, "Go", m.Bookmark.Title)
	case <-time.After(3 * time.Second):
		t.Fatal("no relay message")
	}
}
