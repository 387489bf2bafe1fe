package auth

import (
	"context"
	"net/http"
	"strings"

	domainerrors "github.com/smartbookmarks/smartbookmarks/internal/errors"
)

// Verifier resolves a bearer token to the user it was issued for.
// User IDs are opaque to the rest of the system.
type Verifier interface {
	VerifyAccessToken(ctx context.Context, token string) (userID string, err error)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
// The change stream also accepts an access_token query parameter since
// EventSource clients cannot set headers.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

// Identify returns a request identifier for the change stream handler.
func Identify(v Verifier) func(*http.Request) (string, error) {
	return func(r *http.Request) (string, error) {
		token := BearerToken(r)
		if token == "" {
			return "", domainerrors.Unauthorized("missing bearer token")
		}
		return v.VerifyAccessToken(r.Context(), token)
	}
}
