package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/web3-frozen/l2-showdown/internal/cache"
	"github.com/web3-frozen/l2-showdown/internal/config"
	"github.com/web3-frozen/l2-showdown/internal/dashboard"
	"github.com/web3-frozen/l2-showdown/internal/dune"
	"github.com/web3-frozen/l2-showdown/internal/handler"
	"github.com/web3-frozen/l2-showdown/internal/llama"
	"github.com/web3-frozen/l2-showdown/internal/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	var opts []cache.Option
	var ready handler.Pinger

	// Shared cache tier (retry up to 30s for ExternalSecret to sync)
	if cfg.RedisURL != "" {
		var tier *cache.RedisTier
		var err error
		for i := 0; i < 6; i++ {
			tier, err = cache.NewRedisTier(cfg.RedisURL, cfg.RedisPassword)
			if err == nil {
				break
			}
			logger.Warn("redis not ready, retrying...", "attempt", i+1, "error", err)
			time.Sleep(5 * time.Second)
		}
		if err != nil {
			logger.Error("failed to connect to redis after retries", "error", err)
			os.Exit(1)
		}
		defer tier.Close()
		opts = append(opts, cache.WithTier(tier))
		ready = tier
		logger.Info("redis connected for shared cache")
	} else {
		logger.Info("REDIS_URL not set, using in-process cache only")
	}

	var api dune.API
	if cfg.DuneAPIKey != "" {
		api = dune.NewClient(cfg.DuneBaseURL, cfg.DuneAPIKey)
	} else {
		logger.Error("DUNE_API_KEY not set, analytics queries will fail")
	}
	if !cfg.HasAllQueryIDs() {
		logger.Warn("query ids missing, falling back to raw SQL (requires paid Dune plan); see /api/setup")
	}

	pipeline := dashboard.NewPipeline(
		cfg.Chains,
		llama.NewClient(cfg.LlamaBaseURL, logger),
		dune.NewRunner(api, logger, cfg.DunePollInterval, cfg.DuneMaxWait),
		logger,
		cfg.CacheTTL,
		opts...,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background refresh keeps the memo populated between requests
	if cfg.WarmInterval > 0 {
		go pipeline.Warm(ctx, cfg.WarmInterval)
		logger.Info("cache warmer started", "interval", cfg.WarmInterval.String())
	}

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(ready))

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", handler.Dashboard(pipeline))
		r.Get("/chains/{chain}", handler.ChainSeries(pipeline))
		r.Get("/setup", handler.Setup(cfg))
	})

	// A cold build polls each query for up to DuneMaxWait.
	writeTimeout := time.Duration(len(cfg.Chains))*cfg.DuneMaxWait + time.Minute

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "cache_ttl", cfg.CacheTTL.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
