// Package app provides application lifecycle management for the launch registry server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/launch-registry-server/internal/app/storage"
	"github.com/stacklok/launch-registry-server/internal/config"
	"github.com/stacklok/launch-registry-server/internal/status"
	pkgsync "github.com/stacklok/launch-registry-server/internal/sync"
)

// RegistryApp encapsulates all components needed to run the launch registry server
// It provides lifecycle management and graceful shutdown capabilities
type RegistryApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server
	storage    storage.Factory

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start populates an empty store, then runs the background sync loop and the
// HTTP server until Stop is called or the server fails.
func (app *RegistryApp) Start() error {
	if err := app.PopulateIfEmpty(app.ctx); err != nil {
		slog.Error("Initial population failed, background sync will retry", "error", err)
	}

	g, ctx := errgroup.WithContext(app.ctx)

	g.Go(func() error {
		if err := app.components.SyncCoordinator.Start(ctx); err != nil {
			slog.Error("Sync coordinator failed", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("Server listening", "address", app.httpServer.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	// A failed listener cancels ctx, which ends the sync loop
	g.Go(func() error {
		<-ctx.Done()
		return app.components.SyncCoordinator.Stop()
	})

	return g.Wait()
}

// PopulateIfEmpty runs one blocking sync when the store holds no launches and
// initial population is enabled.
func (app *RegistryApp) PopulateIfEmpty(ctx context.Context) error {
	if enabled := app.config.Sync.InitialPopulation; enabled != nil && !*enabled {
		return nil
	}

	count, err := app.components.LaunchStore.CountLaunches(ctx)
	if err != nil {
		return fmt.Errorf("failed to count stored launches: %w", err)
	}
	if count > 0 {
		slog.Info("Launch store already populated, skipping initial sync", "count", count)
		return nil
	}

	slog.Info("Launch store is empty, running initial sync")
	result, err := app.components.SyncCoordinator.TriggerSync(ctx, status.TriggerInitial)
	if err != nil {
		return err
	}

	slog.Info("Initial population completed", "launches", result.LaunchCount, "upserted", result.Upserted)
	return nil
}

// SyncNow runs a single sync cycle outside the background loop
func (app *RegistryApp) SyncNow(ctx context.Context) (*pkgsync.Result, error) {
	return app.components.SyncCoordinator.TriggerSync(ctx, status.TriggerManual)
}

// Stop gracefully stops the application with the given timeout
// It stops the sync coordinator, shuts down the HTTP server and releases storage
func (app *RegistryApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := app.httpServer.Shutdown(shutdownCtx)
	app.Close()
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// Close cancels the application context and releases the storage backend.
// Used directly by one-shot commands that never call Start.
func (app *RegistryApp) Close() {
	if app.cancelFunc != nil {
		app.cancelFunc()
	}
	if app.storage != nil {
		app.storage.Cleanup()
	}
}

// GetConfig returns the application configuration
func (app *RegistryApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *RegistryApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the wired application components
func (app *RegistryApp) Components() *AppComponents {
	return app.components
}
