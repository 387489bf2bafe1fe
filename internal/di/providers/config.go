// Package providers holds the samber/do providers that assemble the bookmark
// server. Long-lived resources are wrapped in handles implementing Shutdown.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/smartbookmarks/smartbookmarks/internal/config"
	"github.com/smartbookmarks/smartbookmarks/internal/logger"
	"github.com/smartbookmarks/smartbookmarks/internal/metrics"
)

// ProvideConfig loads flags, .env and environment variables.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger builds the root logger and installs it as the slog default
// so library code logging through slog ends up in the same stream.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	dev := cfg.App.Environment == "development"

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
		AddSource:   dev,
	})
	slog.SetDefault(log.Logger)

	log.Info("smart bookmarks server starting",
		"env", cfg.App.Environment,
		"store", cfg.Store.Backend,
		"data_dir", cfg.Data.BasePath,
		"level", cfg.Logger.Level,
	)
	return log, nil
}

// ProvideMetrics provides the Prometheus collector.
func ProvideMetrics(i do.Injector) (*metrics.Collector, error) {
	return metrics.NewCollector(), nil
}
