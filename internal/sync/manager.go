package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stacklok/launch-registry-server/internal/config"
	"github.com/stacklok/launch-registry-server/internal/filtering"
	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/sources"
)

// Result contains the result of a successful sync operation
type Result struct {
	Hash        string
	LaunchCount int
	Upserted    int
}

// Failure reasons
const (
	ReasonFetchFailed   = "FetchFailed"
	ReasonFilterFailed  = "FilterFailed"
	ReasonStorageFailed = "StorageFailed"
)

// Error represents a failed sync cycle and the stage it failed in
type Error struct {
	Err     error
	Message string
	Reason  string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind returns the service error kind of the cause
func (e *Error) Kind() service.Kind {
	return service.KindOf(e.Err)
}

// Manager manages synchronization operations for the launch store
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/launch-registry-server/internal/sync Manager
type Manager interface {
	// PerformSync fetches every upstream launch and upserts it
	PerformSync(ctx context.Context) (*Result, *Error)
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	fetcher       sources.LaunchFetcher
	store         service.LaunchStore
	filterService filtering.FilterService
	filter        *config.FilterConfig
}

// ManagerOption configures the default Manager
type ManagerOption func(*defaultSyncManager)

// WithFilter narrows every fetched launch list with filter before it is stored
func WithFilter(filter *config.FilterConfig) ManagerOption {
	return func(m *defaultSyncManager) {
		m.filter = filter
	}
}

// NewDefaultSyncManager creates a new defaultSyncManager
func NewDefaultSyncManager(fetcher sources.LaunchFetcher, store service.LaunchStore, opts ...ManagerOption) Manager {
	m := &defaultSyncManager{
		fetcher:       fetcher,
		store:         store,
		filterService: filtering.NewDefaultFilterService(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PerformSync performs the complete sync operation
// Returns sync result on success, or error on failure
func (s *defaultSyncManager) PerformSync(ctx context.Context) (*Result, *Error) {
	fetchResult, err := s.fetcher.Fetch(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Fetch operation failed", "error", err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Fetch failed: %v", err),
			Reason:  ReasonFetchFailed,
		}
	}

	slog.InfoContext(ctx, "Launch data fetched successfully from source",
		"launch_count", len(fetchResult.Launches),
		"hash", fetchResult.Hash)

	launches, err := s.filterService.ApplyFilters(ctx, fetchResult.Launches, s.filter)
	if err != nil {
		slog.ErrorContext(ctx, "Filter operation failed", "error", err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Filtering failed: %v", err),
			Reason:  ReasonFilterFailed,
		}
	}

	upserted, err := s.store.UpsertLaunches(ctx, launches)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to store launch data", "error", err)
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Storage failed: %v", err),
			Reason:  ReasonStorageFailed,
		}
	}

	slog.InfoContext(ctx, "Launch data stored successfully", "upserted", upserted)

	return &Result{
		Hash:        fetchResult.Hash,
		LaunchCount: len(launches),
		Upserted:    upserted,
	}, nil
}
