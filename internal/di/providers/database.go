package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/smartbookmarks/smartbookmarks/internal/changefeed"
	"github.com/smartbookmarks/smartbookmarks/internal/config"
	"github.com/smartbookmarks/smartbookmarks/internal/logger"
	"github.com/smartbookmarks/smartbookmarks/internal/metrics"
	"github.com/smartbookmarks/smartbookmarks/internal/store"
	"github.com/smartbookmarks/smartbookmarks/internal/store/sqlite"
	"github.com/smartbookmarks/smartbookmarks/internal/store/supabase"
)

// StoreHandle wraps the selected store with Shutdownable.
type StoreHandle struct {
	store.Store
	// Supabase is set when the hosted backend is in use.
	Supabase *supabase.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured store backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Store.Backend {
	case config.BackendSupabase:
		st, err := supabase.Open(cfg.Store.SupabaseURL, cfg.Store.SupabaseServiceKey, log.Component("store"))
		if err != nil {
			return nil, fmt.Errorf("open supabase store: %w", err)
		}
		log.Info("Store opened", "backend", config.BackendSupabase, "url", cfg.Store.SupabaseURL)
		return &StoreHandle{Store: st, Supabase: st}, nil
	default:
		if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		st, err := sqlite.Open(cfg.DatabasePath(), log.Component("store"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info("Store opened", "backend", config.BackendSQLite, "path", cfg.DatabasePath())
		return &StoreHandle{Store: st}, nil
	}
}

// HubHandle wraps the change feed hub with Shutdownable.
type HubHandle struct {
	*changefeed.Hub
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
// Subscribers are closed before the hub's goroutine stops.
func (h *HubHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Hub.Shutdown(ctx)
	h.cancel()
	return err
}

// ProvideHub provides the change feed hub and starts its event loop.
func ProvideHub(i do.Injector) (*HubHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Collector](i)

	hub := changefeed.NewHub(log.Component("changefeed"), m)

	ctx, cancel := context.WithCancel(context.Background())
	hub.Start(ctx)

	return &HubHandle{Hub: hub, cancel: cancel}, nil
}
