// README: Entry point; loads config, wires stores and services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"galley/internal/config"
	httptransport "galley/internal/http"
	"galley/internal/infra"
	"galley/internal/metrics"
	"galley/internal/modules/eta"
	"galley/internal/modules/order"
	"galley/internal/modules/rollup"
	"galley/internal/modules/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err.Error())
		os.Exit(1)
	}
	log := infra.NewLogger(os.Stdout, "galley-api", cfg.Log.Level)
	if err := run(cfg, log); err != nil {
		log.Error("galley-api stopped", "action", "shutdown", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		return errors.New("GALLEY_FIREBASE_PROJECT_ID is required")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		return err
	}

	loc, err := cfg.Prediction.Location()
	if err != nil {
		return err
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	collector := metrics.NewCollector()

	orderStore := order.NewStore(dbPool)
	rollupStore := rollup.NewStore(dbPool)

	var cache stats.Cache
	if cfg.Reports.CacheTTL > 0 {
		redisClient := infra.NewRedis(cfg.Redis.Addr)
		defer redisClient.Close()
		cache = stats.NewRedisCache(redisClient, cfg.Reports.CacheTTL)
	}

	engine := eta.NewEngine(orderStore, rollupStore, collector, log, eta.Options{
		QueryTimeout:     cfg.Prediction.QueryTimeout,
		BatchConcurrency: cfg.Prediction.BatchConcurrency,
		DefaultLocale:    cfg.Prediction.DefaultLocale,
		Location:         loc,
	})
	reports := stats.NewService(rollupStore, cache, collector, log)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		ETA:      engine,
		Reports:  reports,
		Verifier: verifier,
		Metrics:  collector.Handler(),
		Log:      log,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "action", "startup", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
