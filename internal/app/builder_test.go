package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/launch-registry-server/internal/config"
	"github.com/stacklok/launch-registry-server/internal/resilience"
	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/service/mocks"
	"github.com/stacklok/launch-registry-server/internal/sources"
	sourcemocks "github.com/stacklok/launch-registry-server/internal/sources/mocks"
	"github.com/stacklok/launch-registry-server/internal/status"
	pkgsync "github.com/stacklok/launch-registry-server/internal/sync"
	"github.com/stacklok/launch-registry-server/internal/telemetry"
)

// failingFactory fails CreateLaunchStore and records Cleanup calls
type failingFactory struct {
	cleaned bool
}

func (f *failingFactory) CreateLaunchStore(context.Context) (service.LaunchStore, error) {
	return nil, errors.New("disk full")
}

func (f *failingFactory) Cleanup() { f.cleaned = true }

// createSQLiteTestConfig returns a valid config storing everything under a temp dir
func createSQLiteTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Storage.SQLite.Path = filepath.Join(dir, "launches.db")
	cfg.Sync.StatusPath = filepath.Join(dir, "status.json")
	return cfg
}

func TestBaseConfig_Defaults(t *testing.T) {
	t.Parallel()

	built, err := baseConfig()
	require.NoError(t, err)
	require.NotNil(t, built.config)
	assert.Equal(t, defaultHTTPAddress, built.address)
	assert.Equal(t, defaultRequestTimeout, built.requestTimeout)
	assert.Equal(t, config.StorageTypeSQLite, built.config.Storage.Type)
	assert.Equal(t, config.DefaultSyncInterval, built.config.Sync.Interval)
}

func TestBaseConfig_OptionError(t *testing.T) {
	t.Parallel()

	built, err := baseConfig(WithAddress(":"))
	require.Error(t, err)
	require.Nil(t, built)
}

func TestWithAddress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		address string
		want    string
		wantErr bool
	}{
		{name: "valid address", address: ":9999", want: ":9999"},
		{name: "valid address with host", address: "127.0.0.1:9999", want: "127.0.0.1:9999"},
		{name: "valid address with localhost", address: "localhost:9999", want: "localhost:9999"},
		{name: "invalid empty address", address: "", wantErr: true},
		{name: "invalid empty port", address: ":", wantErr: true},
		{name: "invalid missing port", address: "localhost", wantErr: true},
		{name: "invalid port out of range", address: "localhost:999999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &registryAppConfig{}
			err := WithAddress(tt.address)(cfg)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.address)
		})
	}
}

func TestComponentOptions(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	fetcher := sourcemocks.NewMockLaunchFetcher(ctrl)
	manager := pkgsync.NewDefaultSyncManager(fetcher, mocks.NewMockLaunchStore(ctrl))
	factory := &failingFactory{}
	mw := func(next http.Handler) http.Handler { return next }

	built, err := baseConfig(
		WithFetcher(fetcher),
		WithSyncManager(manager),
		WithStorageFactory(factory),
		WithMiddlewares(mw, mw),
	)
	require.NoError(t, err)
	assert.Equal(t, fetcher, built.fetcher)
	assert.Equal(t, manager, built.syncManager)
	assert.Equal(t, factory, built.storageFactory)
	assert.Len(t, built.middlewares, 2)
}

func TestBuildPipelines(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Resilience.Storage = &resilience.Config{MaxRetries: 5}

	p := buildPipelines(cfg, nil)
	assert.Equal(t, "http", p.http.Name())
	assert.Equal(t, "storage", p.storage.Name())
	assert.Equal(t, "sync", p.sync.Name())

	// Only the HTTP policy arms a breaker by default
	assert.NotNil(t, p.http.Breaker())
	assert.Nil(t, p.storage.Breaker())
	assert.Nil(t, p.sync.Breaker())
}

func TestBuildHTTPServer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name           string
		config         *registryAppConfig
		wantAddr       string
		wantReadTO     time.Duration
		wantWriteTO    time.Duration
		wantIdleTO     time.Duration
		expectDefaults bool
	}{
		{
			name: "with default middlewares",
			config: &registryAppConfig{
				address:        ":8080",
				requestTimeout: 10 * time.Second,
				readTimeout:    10 * time.Second,
				writeTimeout:   15 * time.Second,
				idleTimeout:    60 * time.Second,
			},
			wantAddr:       ":8080",
			wantReadTO:     10 * time.Second,
			wantWriteTO:    15 * time.Second,
			wantIdleTO:     60 * time.Second,
			expectDefaults: true,
		},
		{
			name: "with custom middlewares",
			config: &registryAppConfig{
				address: ":9090",
				middlewares: []func(http.Handler) http.Handler{
					func(next http.Handler) http.Handler { return next },
				},
				requestTimeout: 5 * time.Second,
				readTimeout:    5 * time.Second,
				writeTimeout:   10 * time.Second,
				idleTimeout:    30 * time.Second,
			},
			wantAddr:    ":9090",
			wantReadTO:  5 * time.Second,
			wantWriteTO: 10 * time.Second,
			wantIdleTO:  30 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			server, err := buildHTTPServer(ctx, tt.config, mocks.NewMockLaunchStore(ctrl), &mockCoordinator{}, status.NewTracker(nil))

			require.NoError(t, err)
			require.NotNil(t, server)
			assert.Equal(t, tt.wantAddr, server.Addr)
			assert.Equal(t, tt.wantReadTO, server.ReadTimeout)
			assert.Equal(t, tt.wantWriteTO, server.WriteTimeout)
			assert.Equal(t, tt.wantIdleTO, server.IdleTimeout)
			assert.NotNil(t, server.Handler)

			if tt.expectDefaults {
				assert.Len(t, tt.config.middlewares, 5, "default middlewares should be set")
			} else {
				assert.Len(t, tt.config.middlewares, 1, "custom middlewares should be preserved")
			}

			rr := httptest.NewRecorder()
			server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/sync/status", nil))
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	}
}

func TestBuildHTTPServer_WithTelemetry(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	tel, err := telemetry.New(context.Background())
	require.NoError(t, err)

	cfg := &registryAppConfig{address: ":8080", requestTimeout: time.Second, telemetry: tel}
	server, err := buildHTTPServer(context.Background(), cfg, mocks.NewMockLaunchStore(ctrl), &mockCoordinator{}, status.NewTracker(nil))
	require.NoError(t, err)

	// HTTP metrics and tracing are prepended to the defaults
	assert.Len(t, cfg.middlewares, 7)

	// Disabled telemetry has no Prometheus handler
	rr := httptest.NewRecorder()
	server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNewRegistryApp_StorageFailureCleansUp(t *testing.T) {
	t.Parallel()

	factory := &failingFactory{}
	app, err := NewRegistryApp(context.Background(), WithStorageFactory(factory))

	require.Error(t, err)
	assert.Nil(t, app)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, factory.cleaned)
}

func TestNewRegistryApp_UnknownStorageType(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Storage.Type = "mongo"

	_, err := NewRegistryApp(context.Background(), WithConfig(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create storage factory")
}

func TestNewRegistryApp_SQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	success := true
	fetcher := sourcemocks.NewMockLaunchFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any()).Return(&sources.FetchResult{
		Launches: []service.Launch{{
			ID:           "5eb87cd9ffd86e000604b32a",
			FlightNumber: 1,
			Name:         "FalconSat",
			DateUTC:      time.Date(2006, 3, 24, 22, 30, 0, 0, time.UTC),
			Success:      &success,
		}},
		Hash: "abc123",
	}, nil).Times(1)

	tel, err := telemetry.New(ctx)
	require.NoError(t, err)

	cfg := createSQLiteTestConfig(t)
	app, err := NewRegistryApp(ctx,
		WithConfig(cfg),
		WithFetcher(fetcher),
		WithTelemetry(tel),
		WithAddress("127.0.0.1:0"),
	)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	// Empty store triggers one sync; a populated one does not
	require.NoError(t, app.PopulateIfEmpty(ctx))
	require.NoError(t, app.PopulateIfEmpty(ctx))

	count, err := app.Components().LaunchStore.CountLaunches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	st := app.Components().StatusTracker.Get()
	assert.Equal(t, status.SyncPhaseComplete, st.Phase)
	assert.Equal(t, status.TriggerInitial, st.Trigger)
	assert.Equal(t, "abc123", st.LastSyncHash)

	_, err = os.Stat(cfg.Sync.StatusPath)
	require.NoError(t, err, "sync status should be persisted")

	rr := httptest.NewRecorder()
	app.GetHTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/launches/5eb87cd9ffd86e000604b32a", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"name":"FalconSat"`)
}
