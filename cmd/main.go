package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vigilance/vanguard/internal/adapters/bungie/gateway"
	"github.com/vigilance/vanguard/internal/adapters/bungie/throttle"
	"github.com/vigilance/vanguard/internal/adapters/http/api"
	"github.com/vigilance/vanguard/internal/adapters/http/swagger"
	"github.com/vigilance/vanguard/internal/adapters/repository"
	service "github.com/vigilance/vanguard/internal/app"
	"github.com/vigilance/vanguard/internal/config"
	"github.com/vigilance/vanguard/internal/domain/manifest"
	"github.com/vigilance/vanguard/pkg/logger"
	"github.com/vigilance/vanguard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 5 * time.Minute // full history walks are slow
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 15 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "vanguard exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run wires every component from cfg and serves until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.InitWithOptions(logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, closeDeps, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer closeDeps()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(ctx, "service stop failed", logger.Error(err))
		}
	}()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// buildService assembles the gateway, stores and loader. The returned func
// releases external connections.
func buildService(cfg *config.Config) (*service.Service, func(), error) {
	limiter, err := throttle.New(cfg.ThrottleMode, cfg.ThrottleCap, cfg.ThrottleWindow())
	if err != nil {
		return nil, nil, err
	}
	gw := gateway.New(
		gateway.WithLimiter(limiter),
		gateway.WithTimeout(cfg.RequestTimeout()),
		gateway.WithAPIKey(cfg.APIKey),
		gateway.WithClientCredentials(cfg.ClientID, cfg.ClientSecret),
		gateway.WithBaseURL(cfg.BaseURL),
		gateway.WithStatsBaseURL(cfg.StatsBaseURL),
	)

	loaderOpts := []manifest.Option{manifest.WithLocale(cfg.Locale)}
	var store repository.Store = repository.NewMemoryStore()
	closeDeps := func() {}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store = repository.NewRedisStore(rdb)
		loaderOpts = append(loaderOpts, manifest.WithCache(manifest.NewRedisCache(rdb), cfg.ManifestCacheTTLDuration()))
		closeDeps = func() { _ = rdb.Close() }
	}

	svc := service.New(gw, store,
		service.WithLoader(manifest.NewLoader(gw, loaderOpts...)),
		service.WithFanoutWorkers(cfg.FanoutWorkers),
		service.WithPageSize(cfg.PageSize),
		service.WithRecentCount(cfg.RecentCount),
		service.WithCutoffYear(cfg.CutoffYear),
	)
	return svc, closeDeps, nil
}

func newMux(ctx context.Context, svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(mux)
	return mux
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc api.StatsProvider) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		metrics.UpdateSystemGCPause(float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond)
	}
}

// updateServiceMetrics copies store-backed counts into gauges; the Redis
// store has no hook of its own.
func updateServiceMetrics(ctx context.Context, svc api.StatsProvider) {
	stats := svc.GetStats(ctx)
	if n, ok := stats["accounts"].(int); ok {
		metrics.UpdateAccountsStored(n)
	}
}
