package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/config"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/apikeycodec"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/broadcast"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/circuitbreaker"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/httpapi"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/httpserver"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/memrepo"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/metrics"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partnercache"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partnerclient"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/sqlrepo"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/workerpool"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repo, err := openRepository(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open partner repository", slog.Any("err", err))
		os.Exit(1)
	}

	cache := partnercache.New(repo, cfg.PartnerCache.Capacity, cfg.CacheTTL(), log)
	cache.Preload(ctx)

	breakers := circuitbreaker.NewRegistry(breakerConfig(cfg))
	breakers.StartEvictionSweeper(log)

	collector := metrics.NewCollector(256, log)
	collector.Start(ctx)

	client := partnerclient.New(breakers, collector.EventChannel(), log)

	pool := workerpool.New(cfg.WorkerPool.CoreSize, cfg.WorkerPool.MaxSize, cfg.WorkerPool.QueueSize, cfg.WorkerPoolKeepAlive(), log)

	orchestrator := broadcast.New(cache, client, pool, cfg.BroadcastDeadline(), collector.EventChannel(), log)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/broadcast/", httpapi.New(orchestrator.BroadcastStartCharging, log))
	mux.HandleFunc("/metrics", collector.Handler())

	srv, err := httpserver.New(cfg.Server.Address, mux)
	if err != nil {
		log.Error("failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	case err := <-srvErrCh:
		if err != nil {
			log.Error("server error", slog.Any("err", err))
		}
	}

	shutdown(log, srv, breakers, pool)
}

// shutdown implements spec.md §5, "Graceful shutdown": stop accepting new
// broadcasts, request cancellation of in-flight workers, then await a
// bounded grace period before forcing termination.
func shutdown(log *slog.Logger, srv *httpserver.Server, breakers *circuitbreaker.Registry, pool *workerpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("error shutting down http server", slog.Any("err", err))
	}
	if err := pool.Stop(ctx); err != nil {
		log.Error("worker pool did not drain within the grace period", slog.Any("err", err))
	}
	if err := breakers.Stop(ctx); err != nil {
		log.Error("breaker eviction sweeper did not stop cleanly", slog.Any("err", err))
	}
}

func openRepository(ctx context.Context, cfg *config.Config, log *slog.Logger) (partnercache.Repository, error) {
	if !cfg.Database.Enabled {
		log.Info("database disabled, using in-memory partner repository")
		return memrepo.New(), nil
	}

	codec, err := apikeycodec.New([]byte(config.EncryptionKey()))
	if err != nil {
		return nil, err
	}

	return sqlrepo.Connect(ctx, cfg.Database.DSN, codec)
}

func breakerConfig(cfg *config.Config) circuitbreaker.Config {
	return circuitbreaker.Config{
		WindowSize:                cfg.Breaker.WindowSize,
		MinimumCalls:              cfg.Breaker.MinimumCalls,
		FailureRateThreshold:      cfg.Breaker.FailureRateThreshold,
		SlowCallRateThreshold:     cfg.Breaker.SlowCallRateThreshold,
		SlowCallDurationThreshold: mustParseDuration(cfg.Breaker.SlowCallDurationThreshold),
		OpenStateDuration:         mustParseDuration(cfg.Breaker.OpenStateDuration),
		PermittedHalfOpenCalls:    cfg.Breaker.PermittedHalfOpenCalls,
		EvictionQuietPeriod:       mustParseDuration(cfg.Breaker.EvictionQuietPeriod),
		SweepInterval:             mustParseDuration(cfg.Breaker.SweepInterval),
	}
}

// mustParseDuration is only ever called with strings config.Validate has
// already confirmed parse cleanly.
func mustParseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
