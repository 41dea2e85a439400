package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/shiftwatch/internal/adapters/http/api"
	"github.com/okian/shiftwatch/internal/adapters/repository"
	app "github.com/okian/shiftwatch/internal/app"
	"github.com/okian/shiftwatch/internal/config"
	"github.com/okian/shiftwatch/pkg/logger"
	"github.com/okian/shiftwatch/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout          = 10 * time.Second
	writeTimeout         = 10 * time.Second
	idleTimeout          = 60 * time.Second
	readHeaderTimeout    = 5 * time.Second
	shutdownTimeout      = 30 * time.Second
	storeMetricsInterval = 5 * time.Second
	postgresDialTimeout  = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to keep the scrape surface to
	// our own collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since the logger isn't up yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.Init(cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.Error(err))
		return
	}

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithListLimits(cfg.DefaultListLimit, cfg.MaxListLimit),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	if cfg.SeedOnStart {
		if err := seedIfEmpty(ctx, svc, store, log); err != nil {
			log.Error(ctx, "failed to seed demo data", logger.Error(err))
			return
		}
	}

	// Keep the store gauges fresh for Prometheus scrapes.
	go startStoreMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// openStore builds the configured store backend.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		dialCtx, cancel := context.WithTimeout(ctx, postgresDialTimeout)
		defer cancel()

		store, err := repository.OpenPostgres(dialCtx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "using postgres store")
		return store, nil
	default:
		log.Info(ctx, "using in-memory store")
		return repository.NewMemStore(), nil
	}
}

// seedIfEmpty loads demo data unless the store already holds events, so a
// restart against a populated database keeps its history.
func seedIfEmpty(ctx context.Context, svc *app.Service, store repository.Store, log logger.Logger) error {
	n, err := store.CountEvents(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info(ctx, "store already populated; skipping demo seed", logger.Int("events", n))
		return nil
	}

	res, err := svc.Seed(ctx, false)
	if err != nil {
		return err
	}
	log.Info(ctx, "seeded demo data on startup",
		logger.Int("workers", res.WorkersCreated),
		logger.Int("workstations", res.WorkstationsCreated),
		logger.Int("events", res.EventsCreated),
	)
	return nil
}

// startStoreMetricsUpdater refreshes the store gauges on a fixed interval.
func startStoreMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(storeMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateStoreMetrics(svc)
		}
	}
}

// updateStoreMetrics pushes the current store counts into the gauges.
func updateStoreMetrics(svc *app.Service) {
	stats := svc.GetStats()

	events, _ := stats["totalEvents"].(int)
	workers, _ := stats["totalWorkers"].(int)
	stations, _ := stats["totalWorkstations"].(int)
	metrics.UpdateStoreCounts(events, workers, stations)
}
