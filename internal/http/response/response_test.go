package response

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "github.com/smartbookmarks/smartbookmarks/internal/errors"
	"github.com/smartbookmarks/smartbookmarks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	Success(w, map[string]string{"id": "bm-1"}, logger)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	body := decode(t, w)
	assert.EqualValues(t, 1, body["v"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"id": "bm-1"}, body["data"])
	assert.NotContains(t, body, "error")
	assert.NotContains(t, body, "code")
}

func TestTooManyRequests(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequests(w, nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, CodeRateLimited, body["code"])
	assert.Equal(t, "rate limit exceeded", body["error"])
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
		wantTag  string
	}{
		{
			name:     "domain validation",
			err:      domainerrors.Validation("URL is required"),
			wantCode: http.StatusBadRequest,
			wantErr:  "URL is required",
			wantTag:  "VALIDATION",
		},
		{
			name:     "store not found",
			err:      store.ErrNotFound.WithMessage("bookmark not found"),
			wantCode: http.StatusNotFound,
			wantErr:  "bookmark not found",
			wantTag:  "NOT_FOUND",
		},
		{
			name:     "store unavailable",
			err:      store.ErrUnavailable,
			wantCode: http.StatusBadGateway,
			wantTag:  "UNAVAILABLE",
		},
		{
			name:     "unknown",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantErr:  "internal server error",
			wantTag:  "INTERNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, nil)

			assert.Equal(t, tt.wantCode, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantTag, body["code"])
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, body["error"])
			}
		})
	}
}

func TestClassify_Details(t *testing.T) {
	details := map[string]string{"url": "must be a valid http(s) URL"}
	status, code, msg, got := Classify(domainerrors.ValidationWithDetails("validation failed", details))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", code)
	assert.Equal(t, "validation failed", msg)
	assert.Equal(t, details, got)
}
