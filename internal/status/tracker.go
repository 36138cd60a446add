package status

import (
	"context"
	"log/slog"
	"sync"
)

// Tracker holds the current sync status. Reads return copies so callers never
// observe a status mid-update.
type Tracker struct {
	mu          sync.RWMutex
	status      SyncStatus
	persistence StatusPersistence
}

// NewTracker creates a tracker starting Idle. A nil persistence keeps the
// status in memory only.
func NewTracker(persistence StatusPersistence) *Tracker {
	return &Tracker{
		status:      SyncStatus{Phase: SyncPhaseIdle},
		persistence: persistence,
	}
}

// Load restores the persisted status. A run left Syncing by a crash is
// reported as Failed.
func (t *Tracker) Load(ctx context.Context) error {
	if t.persistence == nil {
		return nil
	}

	loaded, err := t.persistence.LoadStatus(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = *loaded
	if t.status.Phase == "" {
		t.status.Phase = SyncPhaseIdle
	}
	if t.status.Phase == SyncPhaseSyncing {
		t.status.Phase = SyncPhaseFailed
		t.status.Message = "Previous sync was interrupted"
	}
	return nil
}

// Get returns a copy of the current status
func (t *Tracker) Get() SyncStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Update applies fn under the lock and persists the result. Persistence
// failures are logged and never fail the update.
func (t *Tracker) Update(ctx context.Context, fn func(*SyncStatus)) SyncStatus {
	t.mu.Lock()
	fn(&t.status)
	snapshot := t.status
	t.mu.Unlock()

	if t.persistence != nil {
		if err := t.persistence.SaveStatus(ctx, &snapshot); err != nil {
			slog.WarnContext(ctx, "Failed to persist sync status", "phase", snapshot.Phase, "error", err)
		}
	}
	return snapshot
}
