package providers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/smartbookmarks/smartbookmarks/internal/api"
	"github.com/smartbookmarks/smartbookmarks/internal/auth"
	"github.com/smartbookmarks/smartbookmarks/internal/changefeed"
	"github.com/smartbookmarks/smartbookmarks/internal/config"
	"github.com/smartbookmarks/smartbookmarks/internal/logger"
	"github.com/smartbookmarks/smartbookmarks/internal/metrics"
	"github.com/smartbookmarks/smartbookmarks/internal/ratelimit"
	"github.com/smartbookmarks/smartbookmarks/internal/service"
)

// Handles get this long to drain during injector shutdown.
const shutdownTimeout = 30 * time.Second

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	// API is the routed handler, exposed for in-process callers.
	API     *api.Server
	limiter *ratelimit.KeyedRateLimiter
	addr    net.Addr
}

// ListenAddr returns the address the server is listening on.
func (h *HTTPServerHandle) ListenAddr() net.Addr {
	return h.addr
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if h.limiter != nil {
		h.limiter.Stop()
	}
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Collector](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	hubHandle := do.MustInvoke[*HubHandle](i)
	verifier := do.MustInvoke[auth.Verifier](i)
	titles := do.MustInvoke[*TitleFetcherHandle](i)

	services := &api.Services{
		Bookmark: do.MustInvoke[*service.BookmarkService](i),
		Tag:      do.MustInvoke[*service.TagService](i),
		Sharing:  do.MustInvoke[*service.SharingService](i),
		Titles:   titles.Fetcher,
	}

	var limiter *ratelimit.KeyedRateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = ratelimit.New(cfg.Server.RateLimit, cfg.Server.RateBurst)
	}

	changes := changefeed.NewHandler(hubHandle.Hub, auth.Identify(verifier), log.Component("changefeed"))

	handler := api.NewServer(cfg.Server, api.Deps{
		Store:    storeHandle.Store,
		Services: services,
		Verifier: verifier,
		Changes:  changes,
		Metrics:  m,
		Limiter:  limiter,
	}, log.Component("api"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		if limiter != nil {
			limiter.Stop()
		}
		return nil, err
	}

	// Start in background
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", ln.Addr().String())

	return &HTTPServerHandle{Server: srv, API: handler, limiter: limiter, addr: ln.Addr()}, nil
}
