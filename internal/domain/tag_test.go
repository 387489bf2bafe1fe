package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindTag(t *testing.T) {
	tags := []Tag{
		{ID: "t-1", Name: "Work"},
		{ID: "t-2", Name: "t-1"},
	}

	got, ok := FindTag(tags, "work")
	assert.True(t, ok)
	assert.Equal(t, "t-1", got.ID)

	got, ok = FindTag(tags, "t-1")
	assert.True(t, ok)
	assert.Equal(t, "Work", got.Name, "ids win over names")

	_, ok = FindTag(tags, "missing")
	assert.False(t, ok)
}
