package config

import (
	"fmt"
	"os"
	"time"

	"voxcmd/pkg/logger"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Server struct {
		Addr        string   `yaml:"addr" env:"SERVER_ADDR" env-default:":8000"`
		BodyLimitMB int      `yaml:"body_limit_mb" env:"SERVER_BODY_LIMIT_MB" env-default:"25"`
		CORSOrigins []string `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS" env-separator:","`
	} `yaml:"server"`

	Log struct {
		Debug bool `yaml:"debug" env:"LOG_DEBUG" env-default:"false"`
	} `yaml:"log"`

	Vosk struct {
		ModelPath   string `yaml:"model_path" env:"VOSK_MODEL_PATH" env-default:"models/vosk-model-small-ru"`
		GrammarPath string `yaml:"grammar_path" env:"VOSK_GRAMMAR_PATH" env-default:"configs/grammar.json"`
		SampleRate  int    `yaml:"sample_rate" env:"VOSK_SAMPLE_RATE" env-default:"16000"`
	} `yaml:"vosk"`

	SpeechKit struct {
		FolderID          string        `yaml:"folder_id" env:"YANDEX_FOLDER_ID"`
		APIKey            string        `yaml:"api_key" env:"YANDEX_API_KEY"`
		Language          string        `yaml:"language" env:"SPEECHKIT_LANGUAGE" env-default:"ru-RU"`
		Model             string        `yaml:"model" env:"SPEECHKIT_MODEL" env-default:"general"`
		SyncLimitBytes    int           `yaml:"sync_limit_bytes" env:"SPEECHKIT_SYNC_LIMIT_BYTES" env-default:"960000"`
		PollInterval      time.Duration `yaml:"poll_interval" env:"SPEECHKIT_POLL_INTERVAL" env-default:"1s"`
		MaxWait           time.Duration `yaml:"max_wait" env:"SPEECHKIT_MAX_WAIT" env-default:"5m"`
		RequestsPerSecond int           `yaml:"requests_per_second" env:"SPEECHKIT_RPS" env-default:"20"`
	} `yaml:"speechkit"`

	S3 struct {
		Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"https://storage.yandexcloud.net"`
		Region    string `yaml:"region" env:"S3_REGION" env-default:"ru-central1"`
		AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
		SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
		Bucket    string `yaml:"bucket" env:"S3_BUCKET"`
	} `yaml:"s3"`

	Postgres struct {
		DSN            string `yaml:"dsn" env:"POSTGRES_DSN"`
		MigrationsPath string `yaml:"migrations_path" env:"POSTGRES_MIGRATIONS_PATH" env-default:"migrations"`
	} `yaml:"postgres"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
		Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
		Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"voxcmd:"`
	} `yaml:"redis"`

	RabbitMQ struct {
		URL      string `yaml:"url" env:"RABBITMQ_URL"`
		Exchange string `yaml:"exchange" env:"RABBITMQ_EXCHANGE" env-default:"voxcmd"`
		Queue    string `yaml:"queue" env:"RABBITMQ_QUEUE" env-default:"voice_commands"`
	} `yaml:"rabbitmq"`

	OneC struct {
		BaseURL          string        `yaml:"base_url" env:"ONEC_BASE_URL"`
		Username         string        `yaml:"username" env:"ONEC_USERNAME"`
		Password         string        `yaml:"password" env:"ONEC_PASSWORD"`
		Timeout          time.Duration `yaml:"timeout" env:"ONEC_TIMEOUT" env-default:"5s"`
		MetadataCacheTTL time.Duration `yaml:"metadata_cache_ttl" env:"ONEC_METADATA_CACHE_TTL" env-default:"1h"`
	} `yaml:"onec"`

	Delivery struct {
		Channel         string        `yaml:"channel" env:"DELIVERY_CHANNEL" env-default:"amqp"`
		AttemptTimeout  time.Duration `yaml:"attempt_timeout" env:"DELIVERY_ATTEMPT_TIMEOUT" env-default:"3s"`
		MaxPending      int           `yaml:"max_pending" env:"DELIVERY_MAX_PENDING" env-default:"10000"`
		Overflow        string        `yaml:"overflow" env:"DELIVERY_OVERFLOW" env-default:"drop_oldest"`
		Store           string        `yaml:"store" env:"DELIVERY_STORE" env-default:"memory"`
		BreakerFailures uint32        `yaml:"breaker_failures" env:"DELIVERY_BREAKER_FAILURES" env-default:"5"`
		BreakerTimeout  time.Duration `yaml:"breaker_timeout" env:"DELIVERY_BREAKER_TIMEOUT" env-default:"30s"`
	} `yaml:"delivery"`

	Telegram struct {
		Token string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	} `yaml:"telegram"`

	Audio struct {
		FFmpegPath string `yaml:"ffmpeg_path" env:"FFMPEG_PATH" env-default:"ffmpeg"`
	} `yaml:"audio"`

	Worker struct {
		Concurrency int    `yaml:"concurrency" env:"WORKER_CONCURRENCY" env-default:"1"`
		MetricsAddr string `yaml:"metrics_addr" env:"WORKER_METRICS_ADDR" env-default:":9100"`
	} `yaml:"worker"`
}

// LoadConfig reads CONFIG_PATH (or configs/config.yaml) with env overrides
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Config loaded successfully")
	return &cfg, nil
}

// Validate rejects unknown enum values and impossible limits
func (c *Config) Validate() error {
	switch c.Delivery.Channel {
	case "amqp", "http", "none":
	default:
		return fmt.Errorf("delivery.channel must be amqp, http or none, got %q", c.Delivery.Channel)
	}

	switch c.Delivery.Overflow {
	case "drop_oldest", "reject":
	default:
		return fmt.Errorf("delivery.overflow must be drop_oldest or reject, got %q", c.Delivery.Overflow)
	}

	switch c.Delivery.Store {
	case "memory":
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("delivery.store is postgres but postgres.dsn is empty")
		}
	default:
		return fmt.Errorf("delivery.store must be memory or postgres, got %q", c.Delivery.Store)
	}

	if c.Delivery.Channel == "amqp" && c.RabbitMQ.URL == "" {
		return fmt.Errorf("delivery.channel is amqp but rabbitmq.url is empty")
	}
	if c.Delivery.Channel == "http" && c.OneC.BaseURL == "" {
		return fmt.Errorf("delivery.channel is http but onec.base_url is empty")
	}
	if c.Delivery.MaxPending <= 0 {
		return fmt.Errorf("delivery.max_pending must be positive")
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker.concurrency must be positive")
	}
	if c.Vosk.SampleRate <= 0 {
		return fmt.Errorf("vosk.sample_rate must be positive")
	}

	return nil
}
