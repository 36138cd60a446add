// Package storage provides factory functions for creating the launch store.
// A factory owns the backend resources (database handle or connection pool)
// and releases them on Cleanup.
package storage

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/launch-registry-server/internal/config"
	"github.com/stacklok/launch-registry-server/internal/resilience"
	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/telemetry"
)

// Factory creates the launch store for one storage backend.
type Factory interface {
	// CreateLaunchStore opens the store and applies its schema. The store
	// stays owned by the factory; callers release it through Cleanup.
	CreateLaunchStore(ctx context.Context) (service.LaunchStore, error)

	// Cleanup releases any resources held by this factory.
	// Should be called when the application shuts down.
	Cleanup()
}

// FactoryOption configures the store created by a factory
type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	pipeline *resilience.Pipeline
	tracer   trace.Tracer
	metrics  *telemetry.StoreMetrics
}

// WithPipeline sets the resilience pipeline every store operation runs through
func WithPipeline(p *resilience.Pipeline) FactoryOption {
	return func(o *factoryOptions) {
		o.pipeline = p
	}
}

// WithTracer sets the OpenTelemetry tracer for the store.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) FactoryOption {
	return func(o *factoryOptions) {
		o.tracer = tracer
	}
}

// WithStoreMetrics records the stored launch count after every upsert
func WithStoreMetrics(m *telemetry.StoreMetrics) FactoryOption {
	return func(o *factoryOptions) {
		o.metrics = m
	}
}

func applyFactoryOptions(opts []FactoryOption) factoryOptions {
	var o factoryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewStorageFactory creates a storage factory based on the configured storage type.
func NewStorageFactory(ctx context.Context, cfg *config.Config, opts ...FactoryOption) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.Storage.Type {
	case config.StorageTypePostgres:
		return NewDatabaseFactory(ctx, cfg, opts...)
	case config.StorageTypeSQLite:
		return NewSQLiteFactory(cfg, opts...)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}
}
