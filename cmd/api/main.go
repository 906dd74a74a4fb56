package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/aggregator"
	"github.com/hamed0406/healthcheck/internal/cache"
	"github.com/hamed0406/healthcheck/internal/config"
	"github.com/hamed0406/healthcheck/internal/hostinfo"
	"github.com/hamed0406/healthcheck/internal/httpapi"
	"github.com/hamed0406/healthcheck/internal/logging"
	"github.com/hamed0406/healthcheck/internal/metrics"
	"github.com/hamed0406/healthcheck/internal/probe"
	"github.com/hamed0406/healthcheck/internal/registry"
	"github.com/hamed0406/healthcheck/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := registry.New(cfg.Endpoints)
	if err != nil {
		logger.Fatal("registry_invalid", zap.Error(err))
	}

	prober := probe.NewHTTPProber(cfg.Timeout, logger, probe.WithUserAgent(cfg.UserAgent))

	var store cache.Store = cache.NewMemoryStore()
	if cfg.CacheRedisURL != "" {
		rs, err := cache.NewRedisStore(ctx, cfg.CacheRedisURL)
		if err != nil {
			logger.Fatal("cache_redis_connect", zap.Error(err))
		}
		defer rs.Close()
		store = rs
		logger.Info("cache_store", zap.String("kind", "redis"))
	}
	results := cache.New(store, prober, cfg.CacheTTL, cache.WithLogger(logger))

	sampleOpts := []hostinfo.Option{hostinfo.WithDiskPath(cfg.DiskPath), hostinfo.WithLogger(logger)}
	if cfg.MemoryLimit != "" {
		// Validate already checked the format; -1 leaves the ceiling to the source.
		if n, err := config.ParseMemoryLimit(cfg.MemoryLimit); err == nil && n > 0 {
			sampleOpts = append(sampleOpts, hostinfo.WithMemoryLimit(uint64(n)))
		}
	}
	sampler := hostinfo.NewSampler(hostinfo.NewSystemSource(), sampleOpts...)

	exporter := metrics.NewExporter(reg.Len())
	agg := aggregator.New(reg, results, sampler,
		aggregator.WithConcurrency(cfg.MaxConcurrentChecks),
		aggregator.WithObserver(aggregator.Observers{exporter, scheduler.NewTransitionLog(logger)}),
		aggregator.WithLogger(logger),
	)

	go scheduler.NewWarmer(logger, agg, cfg.WarmInterval).Run(ctx)

	api := httpapi.NewServer(logger, agg, exporter.Handler())
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.Router(httpapi.RouterOptions{
			AllowedOrigins: cfg.AllowedOrigins,
			RateLimitRPM:   cfg.RateLimitRPM,
			RateLimitBurst: cfg.RateLimitBurst,
			Simulate:       cfg.SimulateServices,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api_shutdown_error", zap.Error(err))
		}
	}()

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.Strings("services", reg.Names()),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("timeout", cfg.Timeout),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_listen_error", zap.Error(err))
	}
	logger.Info("api_stopped")
}
