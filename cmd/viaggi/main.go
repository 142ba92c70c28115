package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"viaggi/internal/backend"
	"viaggi/internal/cache"
	"viaggi/internal/cli"
	"viaggi/internal/currency"
	apphttp "viaggi/internal/http"
	applog "viaggi/internal/log"
	"viaggi/internal/middleware/ratelimit"
	"viaggi/internal/services"
	"viaggi/internal/store"
	"viaggi/internal/summary"
)

const (
	shutdownTimeout     = 30 * time.Second
	cacheSweepInterval  = time.Minute
	persistDrainTimeout = 15 * time.Second
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid travel timezone", "error", err, "timezone", cfg.TravelTimezone)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	local := cli.InitLocalStore(logger, cfg.SQLiteDBPath)
	defer local.Close()

	rates := currency.NewRateStore(ctx, local, currency.StaticFetcher{Delay: cfg.RateRefreshDelay})

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.WithComponent(applog.ComponentRemote).Logger)
	remoteRes, err := factory.CreateRemote(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize remote store", "error", err, "backend", bcfg.Type)
		os.Exit(1)
	}
	defer cleanup(logger, "remote", remoteRes.Cleanup)
	persistRes, err := factory.CreatePersister(ctx, bcfg, remoteRes.Remote)
	if err != nil {
		logger.Error("Failed to initialize persister", "error", err, "mode", bcfg.PersistMode)
		os.Exit(1)
	}
	defer cleanup(logger, "persister", persistRes.Cleanup)

	engineLog := logger.WithComponent(applog.ComponentEngine)
	engine := services.NewSyncEngine(cfg.AccountKey, remoteRes.Remote, persistRes.Persister, store.New(store.UUIDGenerator{}),
		services.WithActiveTripClearer(local),
		services.WithErrorHandler(func(err error) {
			engineLog.Warn("Local changes not yet saved remotely", "error", err)
		}))

	// a failed load still leaves a usable default account
	if err := engine.Load(ctx); err != nil {
		logger.Warn("Starting with an unsynchronised account", "error", err, "account_key", cfg.AccountKey)
	}

	rl := ratelimit.DefaultConfig()
	rl.RequestsPerSecond = cfg.RateLimitRPS
	rl.Burst = cfg.RateLimitBurst

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Engine:    engine,
		Summary:   summary.New(currency.NewConverter(rates, logger.WithComponent(applog.ComponentRates).Logger), loc),
		Rates:     rates,
		Session:   local,
		Logger:    logger.WithComponent(applog.ComponentHTTP),
		RateLimit: rl,
		Location:  loc,
	})

	refresh := services.DefaultRateRefreshConfig()
	refresh.Interval = cfg.RateRefreshInterval
	refresher := services.NewRateRefreshLoop(rates, refresh)

	janitor := cache.NewJanitor(logger.WithComponent(applog.ComponentCache).Logger)
	for name, c := range remoteRes.Caches {
		janitor.Register(name, c)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting viaggi server",
			"port", cfg.Port,
			"backend", bcfg.Type,
			"persist_mode", bcfg.PersistMode,
			"timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return refresher.Start(gctx)
	})
	g.Go(func() error {
		janitor.Run(gctx, cacheSweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", "reason", context.Cause(gctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := refresher.Stop(shutdownCtx); err != nil {
			logger.Error("Rate refresh shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), persistDrainTimeout)
	defer cancel()
	if err := engine.Wait(drainCtx); err != nil {
		logger.Error("Pending saves lost on shutdown", "error", err)
	}
	logger.Info("Server stopped gracefully")
}

func cleanup(logger *applog.Logger, name string, fn backend.CleanupFunc) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		logger.Warn("Cleanup failed", "resource", name, "error", err)
	}
}
