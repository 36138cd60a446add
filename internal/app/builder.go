package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/launch-registry-server/internal/api"
	"github.com/stacklok/launch-registry-server/internal/app/storage"
	"github.com/stacklok/launch-registry-server/internal/config"
	"github.com/stacklok/launch-registry-server/internal/resilience"
	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/sources"
	"github.com/stacklok/launch-registry-server/internal/status"
	pkgsync "github.com/stacklok/launch-registry-server/internal/sync"
	"github.com/stacklok/launch-registry-server/internal/sync/coordinator"
	"github.com/stacklok/launch-registry-server/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	storeTracerName   = "github.com/stacklok/launch-registry-server/store"
	fetcherTracerName = "github.com/stacklok/launch-registry-server/sources"
)

// RegistryAppOptions is a function that configures the registry app builder
type RegistryAppOptions func(*registryAppConfig) error

// registryAppConfig collects the builder inputs. Component overrides are
// primarily used by tests.
type registryAppConfig struct {
	config *config.Config

	fetcher        sources.LaunchFetcher
	syncManager    pkgsync.Manager
	storageFactory storage.Factory

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	telemetry *telemetry.Telemetry
}

// pipelines groups the three resilience pipelines built from configuration
type pipelines struct {
	http    *resilience.Pipeline
	storage *resilience.Pipeline
	sync    *resilience.Pipeline
}

func baseConfig(opts ...RegistryAppOptions) (*registryAppConfig, error) {
	cfg := &registryAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		cfg.config = config.Default()
	}

	return cfg, nil
}

// NewRegistryApp wires the store, fetcher, sync coordinator and HTTP server
func NewRegistryApp(
	ctx context.Context,
	opts ...RegistryAppOptions,
) (*RegistryApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	resilienceMetrics, err := telemetry.NewResilienceMetrics(cfg.meterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create resilience metrics: %w", err)
	}
	p := buildPipelines(cfg.config, resilienceMetrics)

	if cfg.storageFactory == nil {
		storeMetrics, err := telemetry.NewStoreMetrics(cfg.meterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create store metrics: %w", err)
		}
		factoryOpts := []storage.FactoryOption{
			storage.WithPipeline(p.storage),
			storage.WithStoreMetrics(storeMetrics),
		}
		if cfg.telemetry != nil {
			factoryOpts = append(factoryOpts, storage.WithTracer(cfg.telemetry.Tracer(storeTracerName)))
		}
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config, factoryOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded && cfg.storageFactory != nil {
			cfg.storageFactory.Cleanup()
		}
	}()

	store, err := cfg.storageFactory.CreateLaunchStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create launch store: %w", err)
	}

	syncCoordinator, tracker, err := buildSyncComponents(ctx, cfg, store, p)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, store, syncCoordinator, tracker)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	// Cleanup is now handled by the app, not in defer
	cleanupNeeded = false

	return &RegistryApp{
		config: cfg.config,
		components: &AppComponents{
			SyncCoordinator: syncCoordinator,
			LaunchStore:     store,
			StatusTracker:   tracker,
		},
		httpServer: httpServer,
		storage:    cfg.storageFactory,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithFetcher allows injecting a custom launch fetcher (for testing)
func WithFetcher(f sources.LaunchFetcher) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.fetcher = f
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithTelemetry enables metrics, tracing and the Prometheus endpoint
func WithTelemetry(t *telemetry.Telemetry) RegistryAppOptions {
	return func(cfg *registryAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

func (b *registryAppConfig) meterProvider() metric.MeterProvider {
	if b.telemetry == nil {
		return nil
	}
	return b.telemetry.MeterProvider()
}

// buildPipelines creates the http, storage and sync pipelines from the
// resilience section, falling back to the built-in policies.
func buildPipelines(cfg *config.Config, metrics *telemetry.ResilienceMetrics) pipelines {
	opts := []resilience.Option{resilience.WithMetrics(metrics)}
	return pipelines{
		http:    resilience.New("http", cfg.Resilience.HTTPPolicy(), opts...),
		storage: resilience.New("storage", cfg.Resilience.StoragePolicy(), opts...),
		sync:    resilience.New("sync", cfg.Resilience.SyncPolicy(), opts...),
	}
}

// buildSyncComponents builds the fetcher, sync manager, status tracker and coordinator
func buildSyncComponents(
	ctx context.Context,
	b *registryAppConfig,
	store service.LaunchStore,
	p pipelines,
) (coordinator.Coordinator, *status.Tracker, error) {
	slog.Info("Initializing sync components")

	if b.syncManager == nil {
		if b.fetcher == nil {
			var tracer trace.Tracer
			if b.telemetry != nil {
				tracer = b.telemetry.Tracer(fetcherTracerName)
			}
			fetcher, err := sources.NewFetcher(&b.config.Source, p.http, tracer)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create launch fetcher: %w", err)
			}
			b.fetcher = fetcher
		}
		b.syncManager = pkgsync.NewDefaultSyncManager(b.fetcher, store, pkgsync.WithFilter(b.config.Filter))
	}

	var persistence status.StatusPersistence
	if b.config.Sync.StatusPath != "" {
		persistence = status.NewFileStatusPersistence(b.config.Sync.StatusPath)
	}
	tracker := status.NewTracker(persistence)
	if err := tracker.Load(ctx); err != nil {
		slog.Warn("Failed to load persisted sync status, starting fresh", "error", err)
	}

	var coordOpts []coordinator.Option
	if b.telemetry != nil {
		syncMetrics, err := telemetry.NewSyncMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create sync metrics: %w", err)
		}
		if syncMetrics != nil {
			coordOpts = append(coordOpts, coordinator.WithSyncMetrics(syncMetrics))
			slog.Info("Sync metrics enabled")
		}
	}

	syncCoordinator := coordinator.New(b.syncManager, tracker, b.config.Sync, p.sync, coordOpts...)
	slog.Info("Sync components initialized successfully")

	return syncCoordinator, tracker, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *registryAppConfig,
	store service.LaunchStore,
	syncer coordinator.Coordinator,
	tracker *status.Tracker,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	serverOpts := []api.ServerOption{}

	// Metrics and tracing go first so rejected and timed out requests are still recorded
	if b.telemetry != nil {
		httpMetrics, err := telemetry.NewHTTPMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
		}
		b.middlewares = append([]func(http.Handler) http.Handler{
			httpMetrics.Middleware,
			telemetry.TracingMiddleware(b.telemetry.TracerProvider()),
		}, b.middlewares...)
		slog.Info("HTTP metrics middleware enabled")

		if h := b.telemetry.MetricsHandler(); h != nil {
			serverOpts = append(serverOpts, api.WithMetricsHandler(h))
		}
	}

	serverOpts = append(serverOpts,
		api.WithMiddlewares(b.middlewares...),
		api.WithSync(syncer, tracker),
	)
	router := api.NewServer(store, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
