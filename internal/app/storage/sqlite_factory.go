package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stacklok/launch-registry-server/internal/config"
	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/service/sqlite"
)

// SQLiteFactory creates a launch store backed by a local SQLite file
type SQLiteFactory struct {
	path    string
	options factoryOptions

	mu    sync.Mutex
	store *sqlite.Store
}

var _ Factory = (*SQLiteFactory)(nil)

// NewSQLiteFactory creates a new SQLite storage factory. The database file is
// created on the first CreateLaunchStore call.
func NewSQLiteFactory(cfg *config.Config, opts ...FactoryOption) (*SQLiteFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	path := config.DefaultSQLitePath
	if cfg.Storage.SQLite != nil && cfg.Storage.SQLite.Path != "" {
		path = cfg.Storage.SQLite.Path
	}

	slog.Info("Creating SQLite storage factory", "path", path)

	return &SQLiteFactory{
		path:    path,
		options: applyFactoryOptions(opts),
	}, nil
}

// CreateLaunchStore opens the SQLite store. Repeated calls return the same store.
func (f *SQLiteFactory) CreateLaunchStore(ctx context.Context) (service.LaunchStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.store != nil {
		return f.store, nil
	}

	var opts []sqlite.Option
	if f.options.tracer != nil {
		opts = append(opts, sqlite.WithTracer(f.options.tracer))
	}
	if f.options.metrics != nil {
		opts = append(opts, sqlite.WithMetrics(f.options.metrics))
	}

	store, err := sqlite.Open(ctx, f.path, f.options.pipeline, opts...)
	if err != nil {
		return nil, err
	}
	f.store = store
	return store, nil
}

// Cleanup closes the database handle if one was opened
func (f *SQLiteFactory) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.store == nil {
		return
	}
	if err := f.store.Close(); err != nil {
		slog.Warn("Failed to close SQLite store", "error", err)
	}
	f.store = nil
}
