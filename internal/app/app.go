// Package app assembles the recognition pipeline from configuration. The HTTP
// server and the Telegram bot share it.
package app

import (
	"context"
	"fmt"
	"time"

	"voxcmd/internal/audio"
	"voxcmd/internal/config"
	"voxcmd/internal/delivery"
	"voxcmd/internal/grammar"
	"voxcmd/internal/metadata"
	"voxcmd/internal/metrics"
	"voxcmd/internal/nlu"
	"voxcmd/internal/onec"
	"voxcmd/internal/pipeline"
	"voxcmd/internal/queue"
	"voxcmd/internal/recognizer"
	"voxcmd/internal/speech"
	"voxcmd/internal/speechkit"
	"voxcmd/internal/storage"
	"voxcmd/pkg/cache"
	"voxcmd/pkg/logger"
	"voxcmd/pkg/resilience"

	"go.uber.org/zap"
)

type App struct {
	Pipeline *pipeline.Pipeline
	Queue    *delivery.Queue
	Decoder  *audio.Converter
	Cache    cache.Cache

	// nil unless postgres.dsn is set
	DB *storage.PostgresStorage

	closers []func()
}

// Build connects every configured backend. Redis is optional: when it is
// unreachable the service runs without caching.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	if rc, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, 24*time.Hour, cfg.Redis.Prefix); err != nil {
		logger.Warn("Redis unavailable, running without cache", zap.Error(err))
	} else {
		a.Cache = rc
		a.onClose(func() { _ = rc.Close() })
		logger.Info("Redis cache connection established")
	}

	if cfg.Postgres.DSN != "" {
		db, err := storage.NewPostgresStorage(ctx, cfg.Postgres.DSN, cfg.Postgres.MigrationsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DB = db
		a.onClose(db.Close)
		logger.Info("Database connection established")
	}

	var onecClient *onec.Client
	if cfg.OneC.BaseURL != "" {
		onecClient = onec.NewClient(onec.Config{
			BaseURL:  cfg.OneC.BaseURL,
			Username: cfg.OneC.Username,
			Password: cfg.OneC.Password,
			Timeout:  cfg.OneC.Timeout,
		})
	}

	canon := metadata.NewDefault()
	if onecClient != nil {
		canon = metadata.NewLoader(onecClient, a.Cache, cfg.OneC.MetadataCacheTTL, nil).Build(ctx)
	}
	logger.Info("Metadata canonicalizer ready", zap.Int("names", canon.Len()))

	fast, err := a.buildFastEngine(cfg)
	if err != nil {
		return nil, err
	}
	fallback, err := a.buildFallbackEngine(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cascade := recognizer.NewCascade(fast, fallback, nlu.NewDefaultEngine())

	channel, err := a.buildChannel(cfg, onecClient)
	if err != nil {
		return nil, err
	}

	var store delivery.Store
	if cfg.Delivery.Store == "postgres" {
		store = a.DB
	}

	a.Queue = delivery.NewQueue(channel, store, delivery.Options{
		AttemptTimeout: cfg.Delivery.AttemptTimeout,
		MaxPending:     cfg.Delivery.MaxPending,
		Overflow:       delivery.OverflowPolicy(cfg.Delivery.Overflow),
		Observer:       metrics.DeliveryObserver{},
	})

	var journal pipeline.Journal
	if a.DB != nil {
		journal = a.DB
	}
	a.Pipeline = pipeline.New(cascade, canon, a.Queue, journal)
	a.Decoder = audio.NewConverter(cfg.Audio.FFmpegPath, cfg.Vosk.SampleRate)

	ok = true
	return a, nil
}

func (a *App) buildFastEngine(cfg *config.Config) (*speech.VoskEngine, error) {
	phrases, err := grammar.Load(cfg.Vosk.GrammarPath)
	if err != nil {
		logger.Warn("Failed to load grammar, fast engine runs unconstrained",
			zap.String("path", cfg.Vosk.GrammarPath),
			zap.Error(err))
	}

	vosk, err := speech.NewVoskEngine(cfg.Vosk.ModelPath, cfg.Vosk.SampleRate, phrases)
	if err != nil {
		return nil, fmt.Errorf("failed to load vosk model: %w", err)
	}
	a.onClose(vosk.Close)
	logger.Info("Vosk engine initialized", zap.Int("phrases", len(phrases)))
	return vosk, nil
}

func (a *App) buildFallbackEngine(ctx context.Context, cfg *config.Config) (*speechkit.Engine, error) {
	client := speechkit.NewClient(speechkit.Config{
		APIKey:            cfg.SpeechKit.APIKey,
		FolderID:          cfg.SpeechKit.FolderID,
		Language:          cfg.SpeechKit.Language,
		Model:             cfg.SpeechKit.Model,
		PollInterval:      cfg.SpeechKit.PollInterval,
		MaxWait:           cfg.SpeechKit.MaxWait,
		RequestsPerSecond: cfg.SpeechKit.RequestsPerSecond,
	})

	var store speechkit.ObjectStore
	if cfg.S3.Bucket != "" {
		s3, err := storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		store = s3
		logger.Info("S3 storage initialized", zap.String("bucket", cfg.S3.Bucket))
	} else {
		logger.Warn("S3 bucket not configured, long utterances will fail on the fallback engine")
	}

	logger.Info("SpeechKit client initialized")
	return speechkit.NewEngine(client, store, cfg.SpeechKit.SyncLimitBytes), nil
}

func (a *App) buildChannel(cfg *config.Config, onecClient *onec.Client) (delivery.Channel, error) {
	var next delivery.Channel

	switch cfg.Delivery.Channel {
	case "amqp":
		rmq, err := queue.NewRabbitMQ(queue.Config{
			URL:      cfg.RabbitMQ.URL,
			Exchange: cfg.RabbitMQ.Exchange,
			Queue:    cfg.RabbitMQ.Queue,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		a.onClose(func() { _ = rmq.Close() })
		logger.Info("RabbitMQ connection established")
		next = rmq
	case "http":
		next = onecClient
	default:
		logger.Info("No delivery channel configured, commands are served to pollers only")
		return nil, nil
	}

	breaker := resilience.NewCircuitBreaker(cfg.Delivery.Channel, cfg.Delivery.BreakerFailures, cfg.Delivery.BreakerTimeout)
	return delivery.NewBreakerChannel(next, breaker), nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close waits for in-flight deliveries, then releases resources in reverse order
func (a *App) Close() {
	if a.Pipeline != nil {
		a.Pipeline.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
