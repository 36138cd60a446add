// Package helpers provides the server, upstream and data helpers shared by the integration tests.
package helpers

import (
	"encoding/json"
	"time"

	"github.com/onsi/gomega"
)

// TestLaunch is a launch in upstream wire format
type TestLaunch struct {
	ID           string    `json:"id"`
	FlightNumber int       `json:"flight_number"`
	Name         string    `json:"name"`
	DateUTC      time.Time `json:"date_utc"`
	Success      *bool     `json:"success"`
	Details      *string   `json:"details"`
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

// CreateTestLaunches returns a small launch history with every outcome represented
func CreateTestLaunches() []TestLaunch {
	return []TestLaunch{
		{
			ID: "5eb87cd9ffd86e000604b32a", FlightNumber: 1, Name: "FalconSat",
			DateUTC: time.Date(2006, 3, 24, 22, 30, 0, 0, time.UTC),
			Success: boolPtr(false), Details: strPtr("Engine failure at 33 seconds and loss of vehicle"),
		},
		{
			ID: "5eb87cdeffd86e000604b330", FlightNumber: 4, Name: "RatSat",
			DateUTC: time.Date(2008, 9, 28, 23, 15, 0, 0, time.UTC),
			Success: boolPtr(true), Details: strPtr("Ratsat was carried to orbit on the first successful orbital launch"),
		},
		{
			ID: "5eb87cfeffd86e000604b34d", FlightNumber: 19, Name: "CRS-6",
			DateUTC: time.Date(2015, 4, 14, 20, 10, 0, 0, time.UTC),
			Success: boolPtr(true), Details: strPtr("Dragon resupply mission to the ISS"),
		},
		{
			ID: "5eb87d46ffd86e000604b388", FlightNumber: 94, Name: "Starlink-12 (v1.0)",
			DateUTC: time.Date(2020, 10, 6, 11, 29, 0, 0, time.UTC),
			Success: boolPtr(true),
		},
		{
			ID: "62dd70d5202306255024d139", FlightNumber: 187, Name: "Crew-5",
			DateUTC: time.Date(2022, 10, 5, 16, 0, 0, 0, time.UTC),
		},
	}
}

// LaunchesJSON renders launches in upstream wire format
func LaunchesJSON(launches []TestLaunch) []byte {
	data, err := json.Marshal(launches)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return data
}
