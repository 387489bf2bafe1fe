package auth

import (
	"context"

	domainerrors "github.com/smartbookmarks/smartbookmarks/internal/errors"
	supa "github.com/supabase-community/supabase-go"
)

var _ Verifier = (*SupabaseVerifier)(nil)

// SupabaseVerifier validates access tokens issued by a Supabase project by
// asking its GoTrue endpoint for the token's user.
type SupabaseVerifier struct {
	client *supa.Client
}

// NewSupabaseVerifier wraps a client created with the project's service key.
func NewSupabaseVerifier(client *supa.Client) *SupabaseVerifier {
	return &SupabaseVerifier{client: client}
}

// VerifyAccessToken implements Verifier.
func (v *SupabaseVerifier) VerifyAccessToken(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	user, err := v.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return "", domainerrors.Unauthorized("invalid access token").WithCause(err)
	}
	return user.ID.String(), nil
}
