package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"voxcmd/internal/api"
	"voxcmd/internal/app"
	"voxcmd/internal/config"
	"voxcmd/internal/storage"
	"voxcmd/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	resetDB := flag.Bool("reset-db", false, "Reset database by dropping all tables and re-running migrations")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.Log.Debug); err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Starting voxcmd server")

	if *resetDB {
		if cfg.Postgres.DSN == "" {
			logger.Fatal("postgres.dsn is required to reset the database")
		}
		logger.Info("Resetting database...")
		if err := storage.ResetMigrations(cfg.Postgres.DSN, cfg.Postgres.MigrationsPath); err != nil {
			logger.Fatal("Failed to reset database", zap.Error(err))
		}
		logger.Info("Database reset completed successfully")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to build pipeline", zap.Error(err))
	}
	defer components.Close()

	var journal api.Journal
	if components.DB != nil {
		journal = components.DB
	}

	handler := api.NewHandler(components.Pipeline, components.Queue, components.Decoder, journal)
	server := api.NewApp(handler, api.Options{
		BodyLimit:   cfg.Server.BodyLimitMB * 1024 * 1024,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		return server.Listen(cfg.Server.Addr)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}

	logger.Info("Server shutdown complete")
}
