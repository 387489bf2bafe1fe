// Package di provides dependency injection configuration for the bookmark server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/smartbookmarks/smartbookmarks/internal/auth"
	"github.com/smartbookmarks/smartbookmarks/internal/config"
	"github.com/smartbookmarks/smartbookmarks/internal/di/providers"
	"github.com/smartbookmarks/smartbookmarks/internal/logger"
	"github.com/smartbookmarks/smartbookmarks/internal/metrics"
	"github.com/smartbookmarks/smartbookmarks/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Persistence and change feed
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideHub)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideVerifier)

	// Outbound
	do.Provide(injector, providers.ProvideTitleFetcher)

	// Business services
	do.Provide(injector, providers.ProvideBookmarkService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideSharingService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. Providers run lazily, so this is
// where startup failures surface.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Collector](injector)

	// Key problems are reported before any store is opened.
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.HubHandle](injector)
	_ = do.MustInvoke[auth.Verifier](injector)
	_ = do.MustInvoke[*providers.TitleFetcherHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.BookmarkService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.SharingService](injector)

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
