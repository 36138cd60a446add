package sources

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stacklok/launch-registry-server/internal/service"
)

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks -source=types.go LaunchFetcher

// LaunchFetcher retrieves the full launch list from an upstream source
type LaunchFetcher interface {
	// Fetch returns every upstream launch along with the payload hash
	Fetch(ctx context.Context) (*FetchResult, error)

	// FetchAll returns every upstream launch
	FetchAll(ctx context.Context) ([]service.Launch, error)
}

// FetchResult is the decoded upstream payload
type FetchResult struct {
	Launches []service.Launch
	// Hash is the hex SHA-256 of the raw payload
	Hash string
}

// launchPayload is the upstream wire representation of a launch
type launchPayload struct {
	ID           string    `json:"id"`
	FlightNumber int       `json:"flight_number"`
	Name         string    `json:"name"`
	DateUTC      time.Time `json:"date_utc"`
	Success      *bool     `json:"success"`
	Details      *string   `json:"details"`
}

// DecodeLaunches parses the upstream wire format. The outcome stays
// three-state; a null details field becomes the empty string.
func DecodeLaunches(data []byte) ([]service.Launch, error) {
	var payload []launchPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, service.NewError(service.KindParse, "failed to decode launch payload", err)
	}

	launches := make([]service.Launch, 0, len(payload))
	for i, p := range payload {
		if p.ID == "" {
			return nil, service.NewError(service.KindParse,
				fmt.Sprintf("launch at index %d has no id", i), nil)
		}
		l := service.Launch{
			ID:           p.ID,
			FlightNumber: p.FlightNumber,
			Name:         p.Name,
			DateUTC:      p.DateUTC.UTC(),
			Success:      p.Success,
		}
		if p.Details != nil {
			l.Details = *p.Details
		}
		launches = append(launches, l)
	}
	return launches, nil
}

// NewFetchResult validates data against the launch schema, decodes it and hashes it
func NewFetchResult(data []byte) (*FetchResult, error) {
	if err := validatePayload(data); err != nil {
		return nil, service.NewError(service.KindParse, "launch payload failed schema validation", err)
	}

	launches, err := DecodeLaunches(data)
	if err != nil {
		return nil, err
	}
	return &FetchResult{
		Launches: launches,
		Hash:     fmt.Sprintf("%x", sha256.Sum256(data)),
	}, nil
}

// fetchAll adapts Fetch to FetchAll
func fetchAll(ctx context.Context, f LaunchFetcher) ([]service.Launch, error) {
	res, err := f.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return res.Launches, nil
}
