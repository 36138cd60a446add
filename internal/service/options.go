package service

import (
	"fmt"
	"strings"
	"time"
)

// SortField selects the column launches are ordered by
type SortField string

const (
	// SortFieldDateUTC orders by launch time
	SortFieldDateUTC SortField = "DateUtc"
	// SortFieldName orders by mission name
	SortFieldName SortField = "Name"
	// SortFieldFlightNumber orders by flight number
	SortFieldFlightNumber SortField = "FlightNumber"
	// SortFieldSuccess orders by outcome
	SortFieldSuccess SortField = "Success"
)

// SortOrder is the direction of the sort
type SortOrder string

const (
	// SortOrderAsc sorts ascending
	SortOrderAsc SortOrder = "Asc"
	// SortOrderDesc sorts descending
	SortOrderDesc SortOrder = "Desc"
)

// ParseSortField parses a sort field case-insensitively
func ParseSortField(s string) (SortField, error) {
	for _, f := range []SortField{SortFieldDateUTC, SortFieldName, SortFieldFlightNumber, SortFieldSuccess} {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid sort field %q: expected one of DateUtc, Name, FlightNumber, Success", s)
}

// ParseSortOrder parses a sort order case-insensitively
func ParseSortOrder(s string) (SortOrder, error) {
	switch {
	case strings.EqualFold(s, string(SortOrderAsc)):
		return SortOrderAsc, nil
	case strings.EqualFold(s, string(SortOrderDesc)):
		return SortOrderDesc, nil
	}
	return "", fmt.Errorf("invalid sort order %q: expected Asc or Desc", s)
}

// ListLaunchesOptions is the query applied by LaunchStore.ListLaunches
type ListLaunchesOptions struct {
	Page      int
	PageSize  int
	SortBy    SortField
	SortOrder SortOrder
	Success   *bool
	FromDate  *time.Time
	ToDate    *time.Time
	// Search is matched case-insensitively against name and details
	Search string
}

// Option sets a field of ListLaunchesOptions
type Option func(*ListLaunchesOptions)

// NewListLaunchesOptions applies opts on top of the defaults. It does not
// validate; callers facing user input should call Validate.
func NewListLaunchesOptions(opts ...Option) *ListLaunchesOptions {
	o := &ListLaunchesOptions{
		Page:      1,
		PageSize:  DefaultPageSize,
		SortBy:    SortFieldDateUTC,
		SortOrder: SortOrderDesc,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithPage sets the 1-based page number
func WithPage(page int) Option {
	return func(o *ListLaunchesOptions) {
		o.Page = page
	}
}

// WithPageSize sets the page size
func WithPageSize(size int) Option {
	return func(o *ListLaunchesOptions) {
		o.PageSize = size
	}
}

// WithSort sets the sort field and direction
func WithSort(field SortField, order SortOrder) Option {
	return func(o *ListLaunchesOptions) {
		o.SortBy = field
		o.SortOrder = order
	}
}

// WithSuccess filters launches by outcome
func WithSuccess(success bool) Option {
	return func(o *ListLaunchesOptions) {
		o.Success = &success
	}
}

// WithDateRange filters launches to [from, to]. Either bound may be nil.
func WithDateRange(from, to *time.Time) Option {
	return func(o *ListLaunchesOptions) {
		if from != nil {
			f := from.UTC()
			o.FromDate = &f
		}
		if to != nil {
			t := to.UTC()
			o.ToDate = &t
		}
	}
}

// WithSearch sets the substring searched in name and details
func WithSearch(search string) Option {
	return func(o *ListLaunchesOptions) {
		o.Search = strings.TrimSpace(search)
	}
}

// Validate checks the options against the limits exposed to API callers
func (o *ListLaunchesOptions) Validate() error {
	if o.Page < 1 {
		return Validation("page must be greater than 0, got %d", o.Page)
	}
	if o.PageSize < 1 || o.PageSize > MaxPageSize {
		return Validation("pageSize must be between 1 and %d, got %d", MaxPageSize, o.PageSize)
	}
	if _, err := ParseSortField(string(o.SortBy)); err != nil {
		return Validation("%v", err)
	}
	if _, err := ParseSortOrder(string(o.SortOrder)); err != nil {
		return Validation("%v", err)
	}
	if o.FromDate != nil && o.ToDate != nil && o.FromDate.After(*o.ToDate) {
		return Validation("fromDate %s is after toDate %s",
			o.FromDate.Format(time.DateOnly), o.ToDate.Format(time.DateOnly))
	}
	return nil
}
