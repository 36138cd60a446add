package filtering

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stacklok/launch-registry-server/internal/config"
	"github.com/stacklok/launch-registry-server/internal/service"
)

// FilterService applies the configured name and outcome filters to a launch list
type FilterService interface {
	// ApplyFilters returns the launches that pass filter. A nil filter returns launches unchanged.
	ApplyFilters(ctx context.Context, launches []service.Launch, filter *config.FilterConfig) ([]service.Launch, error)
}

type defaultFilterService struct{}

// NewDefaultFilterService creates a new defaultFilterService
func NewDefaultFilterService() FilterService {
	return &defaultFilterService{}
}

func (*defaultFilterService) ApplyFilters(
	ctx context.Context,
	launches []service.Launch,
	filter *config.FilterConfig,
) ([]service.Launch, error) {
	if filter == nil {
		return launches, nil
	}

	var include, exclude []string
	if filter.Names != nil {
		include = filter.Names.Include
		exclude = filter.Names.Exclude
	}
	nameFilter, err := NewNameFilter(include, exclude)
	if err != nil {
		return nil, service.NewError(service.KindValidation, "invalid launch filter", err)
	}
	outcomeFilter := NewOutcomeFilter(filter.Outcomes)

	filtered := make([]service.Launch, 0, len(launches))
	for _, l := range launches {
		included, reason := shouldInclude(nameFilter, outcomeFilter, l)
		if !included {
			slog.DebugContext(ctx, "Excluding launch", "id", l.ID, "name", l.Name, "reason", reason)
			continue
		}
		filtered = append(filtered, l)
	}

	slog.InfoContext(ctx, "Launch filtering completed",
		"fetched", len(launches),
		"included", len(filtered),
		"excluded", len(launches)-len(filtered))
	return filtered, nil
}

func shouldInclude(names NameFilter, outcomes OutcomeFilter, l service.Launch) (bool, string) {
	if ok, reason := names.ShouldInclude(l.Name); !ok {
		return false, fmt.Sprintf("name filter: %s", reason)
	}
	if ok, reason := outcomes.ShouldInclude(l.Success); !ok {
		return false, fmt.Sprintf("outcome filter: %s", reason)
	}
	return true, ""
}
