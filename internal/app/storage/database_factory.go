package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/launch-registry-server/internal/config"
	"github.com/stacklok/launch-registry-server/internal/service"
	database "github.com/stacklok/launch-registry-server/internal/service/db"
)

// DatabaseFactory creates a PostgreSQL-backed launch store
type DatabaseFactory struct {
	pool    *pgxpool.Pool
	options factoryOptions
}

var _ Factory = (*DatabaseFactory)(nil)

// NewDatabaseFactory creates a new database-backed storage factory.
// It establishes a connection pool to the configured PostgreSQL database.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config, opts ...FactoryOption) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required for database storage type")
	}

	slog.Info("Creating database-backed storage factory")

	pool, err := buildDatabaseConnectionPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	return &DatabaseFactory{
		pool:    pool,
		options: applyFactoryOptions(opts),
	}, nil
}

// CreateLaunchStore creates the database store on the shared pool and applies the schema
func (d *DatabaseFactory) CreateLaunchStore(ctx context.Context) (service.LaunchStore, error) {
	slog.Debug("Creating database-backed launch store")

	opts := []database.Option{
		database.WithConnectionPool(d.pool),
		database.WithPipeline(d.options.pipeline),
	}
	if d.options.tracer != nil {
		opts = append(opts, database.WithTracer(d.options.tracer))
		slog.Debug("Database store tracing enabled")
	}
	if d.options.metrics != nil {
		opts = append(opts, database.WithMetrics(d.options.metrics))
	}

	return database.New(ctx, opts...)
}

// Cleanup closes the database connection pool and any active connections.
func (d *DatabaseFactory) Cleanup() {
	if d.pool != nil {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}

// buildDatabaseConnectionPool creates a database connection pool with proper configuration.
func buildDatabaseConnectionPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := buildPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	slog.Info("Database connection pool created successfully")
	return pool, nil
}

func buildPoolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	connStr, err := cfg.GetConnectionString()
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	return poolConfig, nil
}
