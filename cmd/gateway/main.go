package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	lockllm "github.com/lockllm/lockllm-go"
	"github.com/lockllm/lockllm-go/internal/auth"
	"github.com/lockllm/lockllm-go/internal/config"
	"github.com/lockllm/lockllm-go/internal/gateway"
	"github.com/lockllm/lockllm-go/internal/ratelimit"
	"github.com/lockllm/lockllm-go/internal/router"
	"github.com/lockllm/lockllm-go/internal/telemetry"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "configs/gateway.yaml", "path to the gateway configuration file")
	verify := flag.Bool("verify", false, "check the LockLLM key against the credits endpoint before serving")
	flag.Parse()

	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	loader := config.NewLoader(*configPath, bootLogger)
	if err := loader.Load(); err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	logger, logCloser := telemetry.NewLogger(logConfig(cfg.Telemetry))
	defer logCloser.Close()
	slog.SetDefault(logger)

	// Validates the key and base URL the same way SDK callers would.
	client, err := lockllm.New(cfg.Client.APIKey, append(cfg.Client.ClientOptions(), lockllm.WithLogger(logger))...)
	if err != nil {
		logger.Error("invalid LockLLM client configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("lockllm client configured",
		"base_url", client.BaseURL(),
		"key_prefix", auth.Redact(cfg.Client.APIKey),
	)
	if *verify {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		balance, err := client.Credits.Balance(ctx, nil)
		cancel()
		if err != nil {
			logger.Error("LockLLM key verification failed", "error", err)
			os.Exit(1)
		}
		logger.Info("LockLLM key verified", "balance", balance.Balance)
	}

	var rdb redis.UniversalClient
	if cfg.Redis.Enabled() {
		c := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addresses[0],
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := c.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable (rate limiting disabled)", "error", err)
			c.Close()
		} else {
			logger.Info("redis connected")
			rdb = c
			defer c.Close()
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewGatewayMetrics(registry)

	healthTracker := router.NewHealthTracker(cfg.Breaker.FailureThreshold, cfg.Breaker.RecoveryInterval, logger)
	keyStore := auth.NewStaticKeyStore(cfg.Auth.KeyHashes)
	handler := gateway.NewHandler(healthTracker, loader.Config, metrics, logger, nil)

	loader.OnReload(func(next *config.Config) {
		handler.SetProxyOptions(next.Proxy.Options())
		keyStore.Replace(next.Auth.KeyHashes)
		healthTracker.Configure(next.Breaker.FailureThreshold, next.Breaker.RecoveryInterval)
		logger.Info("gateway settings reloaded",
			"auth_enabled", keyStore.Enabled(),
			"rate_limit_enabled", next.RateLimit.Enabled,
		)
	})
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if err := loader.Watch(watchCtx); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	if !keyStore.Enabled() {
		logger.Warn("no gateway tokens configured, local authentication disabled")
	}

	r := gateway.NewRouter(gateway.RouterDeps{
		Handler:  handler,
		KeyStore: keyStore,
		Limiter:  ratelimit.NewLimiter(rdb),
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Version:  version,
		Logger:   logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway starting", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("gateway stopped")
}

func logConfig(t config.TelemetryConfig) telemetry.LogConfig {
	return telemetry.LogConfig{
		Level:      t.LogLevel,
		Format:     t.LogFormat,
		File:       t.LogFile,
		MaxSizeMB:  t.LogMaxSizeMB,
		MaxBackups: t.LogMaxBackups,
		MaxAgeDays: t.LogMaxAgeDays,
		Compress:   t.LogCompress,
	}
}
