package providers

import (
	"github.com/samber/do/v2"

	"github.com/smartbookmarks/smartbookmarks/internal/auth"
	"github.com/smartbookmarks/smartbookmarks/internal/config"
	"github.com/smartbookmarks/smartbookmarks/internal/logger"
)

// ProvideTokenService builds the PASETO token service. The key comes from
// ACCESS_TOKEN_KEY when set and from the data directory's key file otherwise; a
// missing file is generated on first start.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i).Component("auth")

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath, cfg.Auth.KeyHex)
	if err != nil {
		return nil, err
	}

	source := "key file"
	if cfg.Auth.KeyHex != "" {
		source = "environment"
	}
	log.Info("token key ready", "source", source, "token_ttl", cfg.Auth.AccessTokenDuration)

	return auth.NewTokenService(key, cfg.Auth.AccessTokenDuration)
}

// ProvideVerifier picks how bearer tokens are checked. Against Supabase the
// project's own sessions are trusted; otherwise only our PASETO tokens are.
func ProvideVerifier(i do.Injector) (auth.Verifier, error) {
	if sb := do.MustInvoke[*StoreHandle](i).Supabase; sb != nil {
		return auth.NewSupabaseVerifier(sb.Client()), nil
	}
	return do.MustInvoke[*auth.TokenService](i), nil
}
