package status

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStatusPersistence_SaveAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "status.json")
	persistence := NewFileStatusPersistence(path)

	now := time.Now().UTC().Truncate(time.Second)
	saved := &SyncStatus{
		Phase:        SyncPhaseComplete,
		Message:      "Sync completed successfully",
		RunID:        "2b1d7c1e-5d1b-4b8e-9f43-1b7a0f0f3c11",
		Trigger:      TriggerScheduled,
		LastAttempt:  &now,
		LastSyncTime: &now,
		LastSyncHash: "abc123",
		LaunchCount:  205,
	}

	ctx := context.Background()
	require.NoError(t, persistence.SaveStatus(ctx, saved))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")

	loaded, err := persistence.LoadStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.Phase, loaded.Phase)
	assert.Equal(t, saved.RunID, loaded.RunID)
	assert.Equal(t, saved.Trigger, loaded.Trigger)
	assert.Equal(t, saved.LastSyncHash, loaded.LastSyncHash)
	assert.Equal(t, saved.LaunchCount, loaded.LaunchCount)
	require.NotNil(t, loaded.LastSyncTime)
	assert.True(t, now.Equal(*loaded.LastSyncTime))
}

func TestFileStatusPersistence_LoadNonExistent(t *testing.T) {
	t.Parallel()

	loaded, err := NewFileStatusPersistence(filepath.Join(t.TempDir(), "missing.json")).LoadStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyncPhaseIdle, loaded.Phase)
}

func TestFileStatusPersistence_LoadCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStatusPersistence(path).LoadStatus(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal status data")
}

func TestFileStatusPersistence_HonoursLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "status.json")
	persistence := NewFileStatusPersistence(path)

	holder := flock.New(path + ".lock")
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err = persistence.SaveStatus(ctx, &SyncStatus{Phase: SyncPhaseComplete})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to lock status file")
	assert.NoFileExists(t, path)

	require.NoError(t, holder.Unlock())
	require.NoError(t, persistence.SaveStatus(context.Background(), &SyncStatus{Phase: SyncPhaseComplete, LaunchCount: 4}))

	loaded, err := persistence.LoadStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.LaunchCount)
}

func TestTracker(t *testing.T) {
	t.Parallel()

	t.Run("starts idle", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, SyncPhaseIdle, NewTracker(nil).Get().Phase)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		t.Parallel()

		tracker := NewTracker(nil)
		snapshot := tracker.Get()
		snapshot.Phase = SyncPhaseFailed
		assert.Equal(t, SyncPhaseIdle, tracker.Get().Phase)
	})

	t.Run("update persists", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "status.json")
		tracker := NewTracker(NewFileStatusPersistence(path))

		got := tracker.Update(ctx, func(s *SyncStatus) {
			s.Phase = SyncPhaseComplete
			s.LastSyncHash = "deadbeef"
		})
		assert.Equal(t, SyncPhaseComplete, got.Phase)

		restored := NewTracker(NewFileStatusPersistence(path))
		require.NoError(t, restored.Load(ctx))
		assert.Equal(t, "deadbeef", restored.Get().LastSyncHash)
	})

	t.Run("interrupted sync loads as failed", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "status.json")
		require.NoError(t, NewFileStatusPersistence(path).SaveStatus(ctx, &SyncStatus{Phase: SyncPhaseSyncing}))

		tracker := NewTracker(NewFileStatusPersistence(path))
		require.NoError(t, tracker.Load(ctx))
		assert.Equal(t, SyncPhaseFailed, tracker.Get().Phase)
		assert.Equal(t, "Previous sync was interrupted", tracker.Get().Message)
	})

	t.Run("concurrent updates", func(t *testing.T) {
		t.Parallel()

		tracker := NewTracker(nil)
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tracker.Update(context.Background(), func(s *SyncStatus) { s.AttemptCount++ })
				_ = tracker.Get()
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, tracker.Get().AttemptCount)
	})
}
