package service

import (
	"testing"

	"github.com/smartbookmarks/smartbookmarks/internal/changefeed"
	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	domainerrors "github.com/smartbookmarks/smartbookmarks/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagService_CreateDefaultsColor(t *testing.T) {
	env := setupTest(t)

	tag, err := env.tags.CreateTag(env.ctx, "u1", CreateTagInput{Name: " reading "})
	require.NoError(t, err)
	assert.Equal(t, "reading", tag.Name)
	assert.Equal(t, domain.DefaultTagColor(), tag.Color)

	custom, err := env.tags.CreateTag(env.ctx, "u1", CreateTagInput{Name: "odd", Color: "chartreuse"})
	require.NoError(t, err)
	assert.Equal(t, "chartreuse", custom.Color, "colors outside the palette are kept")

	_, err = env.tags.CreateTag(env.ctx, "u1", CreateTagInput{Name: ""})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestTagService_ListSortedAndScoped(t *testing.T) {
	env := setupTest(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := env.tags.CreateTag(env.ctx, "u1", CreateTagInput{Name: name})
		require.NoError(t, err)
	}
	_, err := env.tags.CreateTag(env.ctx, "u2", CreateTagInput{Name: "aaa"})
	require.NoError(t, err)

	tags, err := env.tags.ListTags(env.ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "alpha", tags[0].Name)
	assert.Equal(t, "zeta", tags[2].Name)
}

func TestTagService_UpdateAndDelete(t *testing.T) {
	env := setupTest(t)
	tag, err := env.tags.CreateTag(env.ctx, "u1", CreateTagInput{Name: "old"})
	require.NoError(t, err)

	name := "new"
	color := domain.TagColors[3]
	updated, err := env.tags.UpdateTag(env.ctx, "u1", tag.ID, UpdateTagInput{Name: &name, Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Name)
	assert.Equal(t, color, updated.Color)

	c := env.feed.last()
	assert.Equal(t, changefeed.TableTags, c.Table)
	assert.Equal(t, changefeed.EventUpdate, c.EventType)

	_, err = env.tags.UpdateTag(env.ctx, "u2", tag.ID, UpdateTagInput{Name: &name})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	require.NoError(t, env.tags.DeleteTag(env.ctx, "u1", tag.ID))
	assert.Equal(t, changefeed.EventDelete, env.feed.last().EventType)
	assert.ErrorIs(t, env.tags.DeleteTag(env.ctx, "u1", tag.ID), domainerrors.ErrNotFound)
}
