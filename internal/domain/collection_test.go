package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSharedCollection_Touch(t *testing.T) {
	c := &SharedCollection{UpdatedAt: time.Now().Add(-time.Hour)}
	before := c.UpdatedAt

	c.Touch()

	assert.True(t, c.UpdatedAt.After(before))
}
