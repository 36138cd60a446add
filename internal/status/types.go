package status

import "time"

// SyncPhase represents the current phase of a synchronization operation
type SyncPhase string

const (
	// SyncPhaseIdle means no sync has run yet
	SyncPhaseIdle SyncPhase = "Idle"

	// SyncPhaseSyncing means sync is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means sync completed successfully
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means sync failed
	SyncPhaseFailed SyncPhase = "Failed"
)

// Trigger identifies what started a sync cycle
type Trigger string

const (
	// TriggerInitial is the blocking population run at startup
	TriggerInitial Trigger = "initial"

	// TriggerScheduled is a run of the background loop
	TriggerScheduled Trigger = "scheduled"

	// TriggerManual is a run requested through the API or CLI
	TriggerManual Trigger = "manual"
)

// SyncStatus represents the current state of launch synchronization
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase" yaml:"phase"`

	// Message provides additional information about the sync status
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// RunID identifies the most recent sync attempt
	RunID string `json:"runId,omitempty" yaml:"runId,omitempty"`

	// Trigger is what started the most recent attempt
	Trigger Trigger `json:"trigger,omitempty" yaml:"trigger,omitempty"`

	// LastAttempt is the timestamp of the last sync attempt
	LastAttempt *time.Time `json:"lastAttempt,omitempty" yaml:"lastAttempt,omitempty"`

	// AttemptCount is the number of sync attempts since last success
	AttemptCount int `json:"attemptCount" yaml:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last successful sync
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty" yaml:"lastSyncTime,omitempty"`

	// LastSyncHash is the hash of the last successfully synced payload
	LastSyncHash string `json:"lastSyncHash,omitempty" yaml:"lastSyncHash,omitempty"`

	// LaunchCount is the number of launches in the last successful payload
	LaunchCount int `json:"launchCount" yaml:"launchCount,omitempty"`
}
