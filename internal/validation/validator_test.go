package validation_test

import (
	"errors"
	"strings"
	"testing"

	domainerrors "github.com/smartbookmarks/smartbookmarks/internal/errors"
	"github.com/smartbookmarks/smartbookmarks/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookmarkRequest struct {
	URL   string `json:"url" validate:"required,weburl"`
	Title string `json:"title" validate:"title"`
}

type tagRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color,omitempty" validate:"omitempty,max=32"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(bookmarkRequest{URL: "https://github.com", Title: "GitHub"}))
	assert.NoError(t, v.Validate(tagRequest{Name: "reading"}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       any
		wantField string
	}{
		{"blank title", bookmarkRequest{URL: "https://go.dev", Title: "   "}, "title"},
		{"long title", bookmarkRequest{URL: "https://go.dev", Title: strings.Repeat("x", 101)}, "title"},
		{"missing url", bookmarkRequest{Title: "Go"}, "url"},
		{"non-web url", bookmarkRequest{URL: "ftp://example.com", Title: "Go"}, "url"},
		{"long tag name", tagRequest{Name: strings.Repeat("n", 51)}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var derr *domainerrors.Error
			require.True(t, errors.As(err, &derr))
			assert.Equal(t, domainerrors.CodeValidation, derr.Code)

			details, ok := derr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestIsWebURL(t *testing.T) {
	assert.True(t, validation.IsWebURL("https://github.com/user/repo"))
	assert.True(t, validation.IsWebURL(" http://localhost:8080 "))
	assert.False(t, validation.IsWebURL("github.com"))
	assert.False(t, validation.IsWebURL("javascript:alert(1)"))
	assert.False(t, validation.IsWebURL("https://"))
}
