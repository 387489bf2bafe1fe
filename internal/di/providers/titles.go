package providers

import (
	"github.com/samber/do/v2"

	"github.com/smartbookmarks/smartbookmarks/internal/config"
	"github.com/smartbookmarks/smartbookmarks/internal/logger"
	"github.com/smartbookmarks/smartbookmarks/internal/metrics"
	"github.com/smartbookmarks/smartbookmarks/internal/ratelimit"
	"github.com/smartbookmarks/smartbookmarks/internal/titlefetch"
)

// TitleFetcherHandle wraps the title fetcher with Shutdownable.
type TitleFetcherHandle struct {
	*titlefetch.Fetcher
	limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *TitleFetcherHandle) Shutdown() error {
	h.limiter.Stop()
	return h.Close()
}

// ProvideTitleFetcher provides the page title fetcher backed by the on-disk
// cache. If the cache cannot be opened, titles are cached in memory.
func ProvideTitleFetcher(i do.Injector) (*TitleFetcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Collector](i)

	var cache titlefetch.Cache
	badgerCache, err := titlefetch.OpenBadgerCache(cfg.TitleCachePath(), cfg.TitleFetch.CacheTTL, log.Component("titlefetch"))
	if err != nil {
		log.Warn("Title cache unavailable, using memory cache", "error", err)
		cache = titlefetch.NewMemoryCache()
	} else {
		cache = badgerCache
	}

	limiter := ratelimit.New(cfg.TitleFetch.HostRate, 1)

	fetcher := titlefetch.New(titlefetch.Options{
		Timeout:   cfg.TitleFetch.Timeout,
		UserAgent: cfg.TitleFetch.UserAgent,
	}, cache, limiter, m, log.Component("titlefetch"))

	return &TitleFetcherHandle{Fetcher: fetcher, limiter: limiter}, nil
}
