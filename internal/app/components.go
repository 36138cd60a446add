package app

import (
	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/status"
	"github.com/stacklok/launch-registry-server/internal/sync/coordinator"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator manages background synchronization
	SyncCoordinator coordinator.Coordinator

	// LaunchStore serves the read API and receives synced launches
	LaunchStore service.LaunchStore

	// StatusTracker holds the last sync outcome
	StatusTracker *status.Tracker
}
