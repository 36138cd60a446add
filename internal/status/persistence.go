// Package status provides sync status tracking and optional persistence.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is how often a blocked status lock is retried
const lockRetryDelay = 50 * time.Millisecond

// StatusPersistence defines the interface for sync status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the sync status to persistent storage
	SaveStatus(ctx context.Context, status *SyncStatus) error

	// LoadStatus loads the sync status from persistent storage.
	// Returns an Idle SyncStatus if nothing was saved yet (first run).
	LoadStatus(ctx context.Context) (*SyncStatus, error)
}

// fileStatusPersistence implements StatusPersistence using a local JSON file.
// A sibling .lock file serializes access between the server and one-shot
// sync commands sharing the same status path.
type fileStatusPersistence struct {
	path string
	lock *flock.Flock
}

// NewFileStatusPersistence creates a file-based status persistence writing to path
func NewFileStatusPersistence(path string) StatusPersistence {
	return &fileStatusPersistence{path: path, lock: flock.New(path + ".lock")}
}

// SaveStatus writes the status through a temporary file and an atomic rename
func (f *fileStatusPersistence) SaveStatus(ctx context.Context, status *SyncStatus) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	if _, err := f.lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return fmt.Errorf("failed to lock status file: %w", err)
	}
	defer func() { _ = f.lock.Unlock() }()

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data: %w", err)
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file: %w", err)
	}

	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}

	return nil
}

// LoadStatus reads the status file
func (f *fileStatusPersistence) LoadStatus(ctx context.Context) (*SyncStatus, error) {
	if _, err := os.Stat(filepath.Dir(f.path)); os.IsNotExist(err) {
		return &SyncStatus{Phase: SyncPhaseIdle}, nil
	}

	if _, err := f.lock.TryRLockContext(ctx, lockRetryDelay); err != nil {
		return nil, fmt.Errorf("failed to lock status file: %w", err)
	}
	defer func() { _ = f.lock.Unlock() }()

	// #nosec G304 -- path comes from operator configuration
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &SyncStatus{Phase: SyncPhaseIdle}, nil
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var status SyncStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data: %w", err)
	}

	return &status, nil
}
