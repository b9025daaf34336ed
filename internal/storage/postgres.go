package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"

	"voxcmd/pkg/logger"
	"voxcmd/pkg/model"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const DefaultMigrationsPath = "migrations"

type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects and applies pending migrations
func NewPostgresStorage(ctx context.Context, databaseURL, migrationsPath string) (*PostgresStorage, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established")

	if err := withMigrator(databaseURL, migrationsPath, func(m *migrate.Migrate) error {
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No new migrations to apply")
			return nil
		}
		return err
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

// ResetMigrations drops all tables and re-runs migrations (for development)
func ResetMigrations(databaseURL, migrationsPath string) error {
	logger.Warn("Resetting database - this will drop all data!")

	return withMigrator(databaseURL, migrationsPath, func(m *migrate.Migrate) error {
		if err := m.Drop(); err != nil {
			return fmt.Errorf("failed to drop database: %w", err)
		}
		logger.Info("Database dropped successfully")

		if err := m.Up(); err != nil {
			return fmt.Errorf("failed to run migrations after reset: %w", err)
		}
		logger.Info("Database reset and migrations applied successfully")
		return nil
	})
}

func withMigrator(databaseURL, migrationsPath string, fn func(*migrate.Migrate) error) error {
	sourceURL, err := migrationsURL(migrationsPath)
	if err != nil {
		return err
	}

	connConfig, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	logger.Info("Running migrations", zap.String("path", sourceURL))

	db := stdlib.OpenDB(*connConfig)
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	return fn(m)
}

// migrationsURL turns a directory into a file:// source URL on any OS
func migrationsURL(path string) (string, error) {
	if path == "" {
		path = DefaultMigrationsPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get migrations path: %w", err)
	}

	if runtime.GOOS == "windows" {
		u := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
		return u.String(), nil
	}
	return "file://" + abs, nil
}

func (s *PostgresStorage) Close() {
	s.pool.Close()
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Push appends a pending command
func (s *PostgresStorage) Push(ctx context.Context, p model.PendingCommand) error {
	query := `
		INSERT INTO pending_commands (command_id, intent, fields, created_at, enqueued_at)
		VALUES ($1, $2, $3, $4, $5)`

	fields, err := encodeFields(p.Command.Fields)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, query,
		p.Command.ID,
		p.Command.Intent,
		fields,
		p.Command.CreatedAt,
		p.EnqueuedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to push pending command: %w", err)
	}

	return nil
}

// Pop removes and returns the oldest pending command, or nil when empty.
// SKIP LOCKED lets several pollers share the table.
func (s *PostgresStorage) Pop(ctx context.Context) (*model.PendingCommand, error) {
	query := `
		DELETE FROM pending_commands
		WHERE id = (
			SELECT id FROM pending_commands
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING command_id, intent, fields, created_at, enqueued_at`

	var (
		p   model.PendingCommand
		raw []byte
	)
	err := s.pool.QueryRow(ctx, query).Scan(
		&p.Command.ID,
		&p.Command.Intent,
		&raw,
		&p.Command.CreatedAt,
		&p.EnqueuedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop pending command: %w", err)
	}

	p.Command.Fields, err = decodeFields(raw)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (s *PostgresStorage) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pending_commands`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending commands: %w", err)
	}
	return n, nil
}

func (s *PostgresStorage) DropOldest(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM pending_commands
		WHERE id = (SELECT id FROM pending_commands ORDER BY id LIMIT 1 FOR UPDATE SKIP LOCKED)`)
	if err != nil {
		return fmt.Errorf("failed to drop oldest pending command: %w", err)
	}
	return nil
}

// SaveRecognition writes a journal entry
func (s *PostgresStorage) SaveRecognition(ctx context.Context, r *model.Recognition) error {
	query := `
		INSERT INTO recognitions (id, text, engine, intent, fields, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		r.ID,
		r.Text,
		r.Engine,
		r.Intent,
		r.Fields,
		r.DurationMs,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save recognition: %w", err)
	}

	return nil
}

// RecentRecognitions returns the newest journal entries first
func (s *PostgresStorage) RecentRecognitions(ctx context.Context, limit int) ([]*model.Recognition, error) {
	query := `
		SELECT id, text, engine, intent, fields, duration_ms, created_at
		FROM recognitions
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recognitions: %w", err)
	}
	defer rows.Close()

	var out []*model.Recognition
	for rows.Next() {
		var r model.Recognition
		err := rows.Scan(
			&r.ID,
			&r.Text,
			&r.Engine,
			&r.Intent,
			&r.Fields,
			&r.DurationMs,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recognition: %w", err)
		}
		out = append(out, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recognitions: %w", err)
	}

	return out, nil
}
