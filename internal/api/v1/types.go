package v1

import (
	"time"

	"github.com/stacklok/launch-registry-server/internal/service"
)

// LaunchResponse is the wire form of a launch
type LaunchResponse struct {
	ID           string    `json:"id"`
	FlightNumber int       `json:"flightNumber"`
	Name         string    `json:"name"`
	DateUTC      time.Time `json:"dateUtc"`
	Success      *bool     `json:"success"`
	Details      string    `json:"details,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ListLaunchesResponse is one page of launches
type ListLaunchesResponse struct {
	Launches    []LaunchResponse `json:"launches"`
	TotalCount  int              `json:"totalCount"`
	PageSize    int              `json:"pageSize"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
}

// SyncResponse reports a completed manual sync
type SyncResponse struct {
	LaunchCount int    `json:"launchCount"`
	Upserted    int    `json:"upserted"`
	Hash        string `json:"hash"`
}

// NewListLaunchesResponse converts a store page into its wire form
func NewListLaunchesResponse(result *service.ListLaunchesResult) ListLaunchesResponse {
	return ListLaunchesResponse{
		Launches:    toLaunchResponses(result.Launches),
		TotalCount:  result.TotalCount,
		PageSize:    result.PageSize,
		CurrentPage: result.CurrentPage,
		TotalPages:  result.TotalPages,
	}
}

func toLaunchResponse(l service.Launch) LaunchResponse {
	return LaunchResponse{
		ID:           l.ID,
		FlightNumber: l.FlightNumber,
		Name:         l.Name,
		DateUTC:      l.DateUTC,
		Success:      l.Success,
		Details:      l.Details,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func toLaunchResponses(launches []service.Launch) []LaunchResponse {
	out := make([]LaunchResponse, len(launches))
	for i, l := range launches {
		out[i] = toLaunchResponse(l)
	}
	return out
}
