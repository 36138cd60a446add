package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/launch-registry-server/internal/resilience"
	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/status"
	pkgsync "github.com/stacklok/launch-registry-server/internal/sync"
)

// errCyclePanicked marks a cycle whose panic was recovered
var errCyclePanicked = errors.New("sync cycle panicked")

// runCycle executes one sync cycle through the sync pipeline and records its
// outcome in the tracker and metrics
func (c *defaultCoordinator) runCycle(ctx context.Context, trigger status.Trigger) (result *pkgsync.Result, err error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	runID := uuid.NewString()
	logger := slog.With("run_id", runID, "trigger", string(trigger))
	startTime := time.Now()

	syncing := c.tracker.Update(ctx, func(s *status.SyncStatus) {
		s.Phase = status.SyncPhaseSyncing
		s.Message = "Sync in progress"
		s.RunID = runID
		s.Trigger = trigger
		s.LastAttempt = &startTime
		s.AttemptCount++
	})

	logger.InfoContext(ctx, "Starting sync operation", "attempt", syncing.AttemptCount)

	// The final status update runs even when the cycle panics
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Recovered from panic in sync cycle",
				"panic", r,
				"stack", string(debug.Stack()))
			result = nil
			err = service.NewError(service.KindUnknown, fmt.Sprintf("sync cycle panicked: %v", r), errCyclePanicked)
		}
		c.finishCycle(ctx, logger, trigger, time.Since(startTime), result, err)
	}()

	return resilience.Execute(ctx, c.pipeline, func(ctx context.Context) (*pkgsync.Result, error) {
		res, syncErr := c.manager.PerformSync(ctx)
		if syncErr != nil {
			return nil, syncErr
		}
		return res, nil
	})
}

// finishCycle records the final status and metrics of a cycle
func (c *defaultCoordinator) finishCycle(
	ctx context.Context,
	logger *slog.Logger,
	trigger status.Trigger,
	duration time.Duration,
	result *pkgsync.Result,
	err error,
) {
	if err != nil {
		c.tracker.Update(ctx, func(s *status.SyncStatus) {
			s.Phase = status.SyncPhaseFailed
			s.Message = err.Error()
		})

		if errors.Is(err, context.Canceled) {
			logger.InfoContext(ctx, "Sync interrupted", "duration", duration)
		} else {
			logger.ErrorContext(ctx, "Sync failed",
				"kind", service.KindOf(err),
				"duration", duration,
				"error", err)
		}

		c.syncMetrics.RecordSyncDuration(ctx, string(trigger), duration, false)
		return
	}

	now := time.Now()
	c.tracker.Update(ctx, func(s *status.SyncStatus) {
		s.Phase = status.SyncPhaseComplete
		s.Message = "Sync completed successfully"
		s.LastSyncTime = &now
		s.LastSyncHash = result.Hash
		s.LaunchCount = result.LaunchCount
		s.AttemptCount = 0
	})

	hashPreview := result.Hash
	if len(hashPreview) > 8 {
		hashPreview = hashPreview[:8]
	}
	logger.InfoContext(ctx, "Sync completed successfully",
		"launch_count", result.LaunchCount,
		"upserted", result.Upserted,
		"hash", hashPreview,
		"duration", duration)

	c.syncMetrics.RecordSyncDuration(ctx, string(trigger), duration, true)
	c.syncMetrics.RecordUpserted(ctx, result.Upserted)
}
