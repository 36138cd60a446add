package coordinator

import (
	"context"
	"errors"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/stacklok/launch-registry-server/internal/config"
	"github.com/stacklok/launch-registry-server/internal/resilience"
	"github.com/stacklok/launch-registry-server/internal/status"
	pkgsync "github.com/stacklok/launch-registry-server/internal/sync"
	"github.com/stacklok/launch-registry-server/internal/telemetry"
)

// ErrAlreadyStarted is returned by Start when the loop is already running
var ErrAlreadyStarted = errors.New("sync coordinator already started")

// Coordinator manages background synchronization scheduling and execution
type Coordinator interface {
	// Start runs one cycle immediately, then one cycle per interval.
	// Blocks until the context is cancelled or Stop is called, then returns nil.
	Start(ctx context.Context) error

	// Stop cancels the loop and waits for Start to return
	Stop() error

	// TriggerSync runs one cycle now. Cycles never overlap: a trigger
	// waits for a running scheduled cycle and vice versa.
	TriggerSync(ctx context.Context, trigger status.Trigger) (*pkgsync.Result, error)
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager  pkgsync.Manager
	tracker  *status.Tracker
	pipeline *resilience.Pipeline

	interval     time.Duration
	errorBackoff time.Duration

	// runMu serializes cycles
	runMu gosync.Mutex

	// Lifecycle management
	lifecycleMu gosync.Mutex
	cancelFunc  context.CancelFunc
	done        chan struct{}

	// Metrics
	syncMetrics *telemetry.SyncMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// New creates a new coordinator with injected dependencies. A nil tracker
// keeps status in memory; a nil pipeline uses the default sync policy.
func New(
	manager pkgsync.Manager,
	tracker *status.Tracker,
	cfg config.SyncConfig,
	pipeline *resilience.Pipeline,
	opts ...Option,
) Coordinator {
	if tracker == nil {
		tracker = status.NewTracker(nil)
	}
	if pipeline == nil {
		pipeline = resilience.New("sync", resilience.DefaultSyncConfig())
	}

	interval, errorBackoff := resolveIntervals(cfg)
	c := &defaultCoordinator{
		manager:      manager,
		tracker:      tracker,
		pipeline:     pipeline,
		interval:     interval,
		errorBackoff: errorBackoff,
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins background sync coordination
func (c *defaultCoordinator) Start(ctx context.Context) error {
	coordCtx, cancel := context.WithCancel(ctx)

	c.lifecycleMu.Lock()
	if c.cancelFunc != nil {
		c.lifecycleMu.Unlock()
		cancel()
		return ErrAlreadyStarted
	}
	c.cancelFunc = cancel
	c.lifecycleMu.Unlock()

	slog.Info("Starting background sync coordinator",
		"interval", c.interval,
		"error_backoff_interval", c.errorBackoff)

	defer func() {
		cancel()
		close(c.done)
		slog.Info("Background sync coordinator shutting down")
	}()

	for {
		wait := c.interval
		if _, err := c.runCycle(coordCtx, status.TriggerScheduled); errors.Is(err, errCyclePanicked) {
			wait = c.errorBackoff
		}

		if coordCtx.Err() != nil {
			slog.Info("Sync coordinator stopping")
			return nil
		}

		slog.Debug("Waiting for next sync cycle", "wait", wait)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-coordCtx.Done():
			timer.Stop()
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.lifecycleMu.Lock()
	cancel := c.cancelFunc
	c.lifecycleMu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		// Wait for coordinator to finish
		<-c.done
	}
	return nil
}

// TriggerSync runs a cycle outside the schedule
func (c *defaultCoordinator) TriggerSync(ctx context.Context, trigger status.Trigger) (*pkgsync.Result, error) {
	return c.runCycle(ctx, trigger)
}
