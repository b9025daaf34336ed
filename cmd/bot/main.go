package main

import (
	"context"
	"os/signal"
	"syscall"

	"voxcmd/internal/app"
	"voxcmd/internal/bot"
	"voxcmd/internal/config"
	"voxcmd/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
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

	logger.Info("Starting voxcmd bot service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to build pipeline", zap.Error(err))
	}
	defer components.Close()

	if components.Cache == nil {
		logger.Fatal("Redis is required for the bot's chat state")
	}

	botInstance, err := bot.NewBot(cfg.Telegram.Token, components.Pipeline, components.Decoder, components.Cache)
	if err != nil {
		logger.Fatal("Failed to initialize bot", zap.Error(err))
	}

	go func() {
		logger.Info("Starting Telegram bot")
		botInstance.Start()
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	botInstance.Stop()

	logger.Info("Bot service shutdown complete")
}
