// Package service provides the launch domain types and the storage contract
// shared by the sync loop and the read API.
package service

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultPageSize is the page size used when the caller does not set one
	DefaultPageSize = 10
	// MaxPageSize caps the page size a caller may request
	MaxPageSize = 100
)

// Launch is a single launch record reconciled from the upstream API
type Launch struct {
	ID           string
	FlightNumber int
	Name         string
	DateUTC      time.Time
	// Success is nil while the outcome is unknown
	Success   *bool
	Details   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListLaunchesResult is a single page of launches
type ListLaunchesResult struct {
	Launches    []Launch
	TotalCount  int
	PageSize    int
	CurrentPage int
	TotalPages  int
}

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=service.go LaunchStore

// LaunchStore owns the local launches table
type LaunchStore interface {
	// UpsertLaunches inserts or updates every launch by ID and returns the number of affected rows
	UpsertLaunches(ctx context.Context, launches []Launch) (int, error)

	// ListLaunches returns a filtered, sorted page of launches
	ListLaunches(ctx context.Context, opts ...Option) (*ListLaunchesResult, error)

	// GetLaunch returns a launch by ID or a KindNotFound error
	GetLaunch(ctx context.Context, id string) (*Launch, error)

	// ListLaunchesByDate returns every launch on the given UTC calendar day
	ListLaunchesByDate(ctx context.Context, date time.Time) ([]Launch, error)

	// CountLaunches returns the number of stored launches
	CountLaunches(ctx context.Context) (int, error)

	// Close releases the underlying connection
	Close() error
}

// TotalPages returns ceil(totalCount / pageSize), or 0 when pageSize is not positive
func TotalPages(totalCount, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (totalCount + pageSize - 1) / pageSize
}

// Offset returns the row offset for a 1-based page. Pages below 1 map to
// offset 0; offsets past math.MaxInt saturate so the page comes back empty.
func Offset(page, pageSize int) int {
	if page < 1 || pageSize < 1 {
		return 0
	}
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}

// StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of t's UTC calendar day
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}
