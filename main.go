package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"dmars/api"
	"dmars/cache"
	"dmars/config"
	"dmars/digest"
	"dmars/logging"
	"dmars/observability"
	"dmars/seed"
	"dmars/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting DMARS",
		"addr", cfg.Addr(),
		"db_driver", cfg.DBDriver,
		"weights_version", cfg.Weights.Version)

	var store storage.Store
	switch cfg.DBDriver {
	case "postgres":
		store, err = storage.NewPostgres(cfg.DSN(), cfg.MaxRetries, logger)
	default:
		store, err = storage.NewSQLite(cfg.SQLitePath)
	}
	if err != nil {
		logger.Error("open store", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if cfg.SeedEnabled {
		if err := seedCatalog(ctx, cfg, store, logger); err != nil {
			logger.Error("seed catalog", "err", err)
			os.Exit(1)
		}
	}

	metrics := observability.NewMetrics()
	if n, err := store.Count(ctx); err == nil {
		metrics.SetCatalogSize(n)
	}

	h := &api.Handlers{
		Log:     logger,
		Store:   store,
		Cache:   cache.New[any](cfg.CacheTTL(), metrics),
		Metrics: metrics,
		Weights: cfg.Weights,
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Request-ID"}),
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           cors(api.NewRouter(h)),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if cfg.DigestEnabled {
		sched, err := digest.NewScheduler(cfg.DigestTimezone)
		if err != nil {
			logger.Error("digest scheduler", "err", err)
			os.Exit(1)
		}
		job := &digest.Job{
			Log:     logger,
			Store:   store,
			Weights: cfg.Weights,
			TopN:    cfg.DigestTopN,
			Out:     os.Stdout,
		}
		err = sched.Schedule(cfg.DigestTime, func() {
			if err := job.Run(context.Background()); err != nil {
				logger.Error("digest run", "err", err)
			}
		})
		if err != nil {
			logger.Error("schedule digest", "err", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
		logger.Info("digest scheduled", "time", cfg.DigestTime, "timezone", cfg.DigestTimezone)
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	logger.Info("shutdown requested", "signal", s.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	logger.Info("bye")
}

// seedCatalog populates an empty catalog with deterministic sample listings.
// A catalog that already has rows is left untouched.
func seedCatalog(ctx context.Context, cfg *config.Config, store storage.Store, logger *logging.Logger) error {
	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info("seed skipped, catalog not empty", "domains", n)
		return nil
	}
	for _, d := range seed.Generate(cfg.SeedCount, cfg.SeedRand) {
		if err := store.Create(ctx, d); err != nil {
			return err
		}
	}
	logger.Info("seeded catalog", "domains", cfg.SeedCount, "seed", cfg.SeedRand)
	return nil
}
