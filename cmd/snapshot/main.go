// Command snapshot runs the dashboard pipeline once and prints a text report.
// It exits with status 1 when the dashboard is blocked.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/web3-frozen/l2-showdown/internal/cache"
	"github.com/web3-frozen/l2-showdown/internal/config"
	"github.com/web3-frozen/l2-showdown/internal/dashboard"
	"github.com/web3-frozen/l2-showdown/internal/dune"
	"github.com/web3-frozen/l2-showdown/internal/llama"
)

func main() {
	verbose := flag.Bool("v", false, "log pipeline progress to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []cache.Option
	if cfg.RedisURL != "" {
		tier, err := cache.NewRedisTier(cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			logger.Warn("redis unavailable, running uncached", "error", err)
		} else {
			defer tier.Close()
			opts = append(opts, cache.WithTier(tier))
		}
	}

	var api dune.API
	if cfg.DuneAPIKey != "" {
		api = dune.NewClient(cfg.DuneBaseURL, cfg.DuneAPIKey)
	}

	pipeline := dashboard.NewPipeline(
		cfg.Chains,
		llama.NewClient(cfg.LlamaBaseURL, logger),
		dune.NewRunner(api, logger, cfg.DunePollInterval, cfg.DuneMaxWait),
		logger,
		cfg.CacheTTL,
		opts...,
	)

	d := pipeline.Build(ctx)
	if err := dashboard.WriteText(os.Stdout, d); err != nil {
		logger.Error("write report", "error", err)
		os.Exit(1)
	}
	if d.Blocked {
		os.Exit(1)
	}
}
