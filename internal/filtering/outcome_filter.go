package filtering

import (
	"fmt"
	"slices"

	"github.com/stacklok/launch-registry-server/internal/config"
)

// OutcomeFilter keeps launches whose outcome is in an allow list
type OutcomeFilter interface {
	ShouldInclude(success *bool) (bool, string)
}

type outcomeFilter struct {
	allowed []string
}

// NewOutcomeFilter creates a filter for the given outcomes. An empty list allows all.
func NewOutcomeFilter(outcomes []string) OutcomeFilter {
	return &outcomeFilter{allowed: outcomes}
}

// Outcome names the three-state outcome of a launch
func Outcome(success *bool) string {
	switch {
	case success == nil:
		return config.OutcomeUnknown
	case *success:
		return config.OutcomeSuccess
	default:
		return config.OutcomeFailure
	}
}

func (f *outcomeFilter) ShouldInclude(success *bool) (bool, string) {
	if len(f.allowed) == 0 {
		return true, "no outcome filter specified"
	}
	outcome := Outcome(success)
	if slices.Contains(f.allowed, outcome) {
		return true, fmt.Sprintf("outcome '%s' allowed", outcome)
	}
	return false, fmt.Sprintf("outcome '%s' not in %v", outcome, f.allowed)
}
