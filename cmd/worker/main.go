package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"voxcmd/internal/config"
	"voxcmd/internal/onec"
	"voxcmd/internal/queue"
	"voxcmd/internal/worker"
	"voxcmd/pkg/cache"
	"voxcmd/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.Log.Debug); err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Starting voxcmd relay worker")

	if cfg.RabbitMQ.URL == "" || cfg.OneC.BaseURL == "" {
		logger.Fatal("rabbitmq.url and onec.base_url are required for the relay")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rabbitMQ, err := queue.NewRabbitMQ(queue.Config{
		URL:      cfg.RabbitMQ.URL,
		Exchange: cfg.RabbitMQ.Exchange,
		Queue:    cfg.RabbitMQ.Queue,
	})
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitMQ.Close()

	logger.Info("RabbitMQ connection established")

	var dedup cache.Cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, 24*time.Hour, cfg.Redis.Prefix)
	if err != nil {
		logger.Warn("Redis unavailable, relaying without de-duplication", zap.Error(err))
	} else {
		defer redisCache.Close()
		dedup = redisCache
	}

	target := onec.NewClient(onec.Config{
		BaseURL:  cfg.OneC.BaseURL,
		Username: cfg.OneC.Username,
		Password: cfg.OneC.Password,
		Timeout:  cfg.OneC.Timeout,
	})

	relay := worker.NewRelay(rabbitMQ, target, dedup, nil)

	metricsServer := &http.Server{
		Addr:              cfg.Worker.MetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < cfg.Worker.Concurrency; i++ {
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}

	g.Go(func() error {
		logger.Info("Metrics endpoint listening", zap.String("addr", cfg.Worker.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Relay stopped with error", zap.Error(err))
	}

	logger.Info("Worker service shutdown complete")
}
