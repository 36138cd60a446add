// Package v1 provides the launch query and sync control endpoints.
package v1

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/launch-registry-server/internal/api/common"
	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/status"
	pkgsync "github.com/stacklok/launch-registry-server/internal/sync"
)

// Syncer runs a sync cycle on demand
type Syncer interface {
	TriggerSync(ctx context.Context, trigger status.Trigger) (*pkgsync.Result, error)
}

// StatusReader exposes the current sync status
type StatusReader interface {
	Get() status.SyncStatus
}

// Routes handles HTTP requests for the v1 endpoints
type Routes struct {
	store  service.LaunchStore
	syncer Syncer
	status StatusReader
}

// NewRoutes creates a new Routes instance
func NewRoutes(store service.LaunchStore, syncer Syncer, statusReader StatusReader) *Routes {
	return &Routes{
		store:  store,
		syncer: syncer,
		status: statusReader,
	}
}

// Router creates the v1 router. Sync routes are only mounted when a syncer
// and a status reader are provided.
func Router(store service.LaunchStore, syncer Syncer, statusReader StatusReader) http.Handler {
	routes := NewRoutes(store, syncer, statusReader)

	r := chi.NewRouter()
	r.Get("/launches", routes.listLaunches)
	r.Get("/launches/date/{date}", routes.listLaunchesByDate)
	r.Get("/launches/{id}", routes.getLaunch)

	if syncer != nil {
		r.Post("/sync", routes.triggerSync)
	}
	if statusReader != nil {
		r.Get("/sync/status", routes.getSyncStatus)
	}

	return r
}

// listLaunches handles GET /v1/launches
func (routes *Routes) listLaunches(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		common.WriteErrorResponse(w, err, "invalid query")
		return
	}
	if err := service.NewListLaunchesOptions(opts...).Validate(); err != nil {
		common.WriteErrorResponse(w, err, "invalid query")
		return
	}

	result, err := routes.store.ListLaunches(r.Context(), opts...)
	if err != nil {
		common.WriteErrorResponse(w, err, "failed to list launches")
		return
	}

	common.WriteJSONResponse(w, NewListLaunchesResponse(result), http.StatusOK)
}

// getLaunch handles GET /v1/launches/{id}
func (routes *Routes) getLaunch(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.WriteErrorResponse(w, service.Validation("launch ID cannot be empty"), "")
		return
	}

	launch, err := routes.store.GetLaunch(r.Context(), id)
	if err != nil {
		common.WriteErrorResponse(w, err, "failed to get launch")
		return
	}

	common.WriteJSONResponse(w, toLaunchResponse(*launch), http.StatusOK)
}

// listLaunchesByDate handles GET /v1/launches/date/{date}
func (routes *Routes) listLaunchesByDate(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate("date", chi.URLParam(r, "date"))
	if err != nil {
		common.WriteErrorResponse(w, err, "")
		return
	}

	launches, err := routes.store.ListLaunchesByDate(r.Context(), date)
	if err != nil {
		common.WriteErrorResponse(w, err, "failed to list launches")
		return
	}

	common.WriteJSONResponse(w, toLaunchResponses(launches), http.StatusOK)
}

// triggerSync handles POST /v1/sync
func (routes *Routes) triggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := routes.syncer.TriggerSync(r.Context(), status.TriggerManual)
	if err != nil {
		common.WriteErrorResponse(w, err, "sync failed")
		return
	}

	common.WriteJSONResponse(w, SyncResponse{
		LaunchCount: result.LaunchCount,
		Upserted:    result.Upserted,
		Hash:        result.Hash,
	}, http.StatusOK)
}

// getSyncStatus handles GET /v1/sync/status
func (routes *Routes) getSyncStatus(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, routes.status.Get(), http.StatusOK)
}

// parseListOptions turns the query string into list options. Absent
// parameters keep the store defaults.
func parseListOptions(r *http.Request) ([]service.Option, error) {
	query := r.URL.Query()
	var opts []service.Option

	if v := query.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return nil, service.Validation("invalid page parameter: must be an integer")
		}
		opts = append(opts, service.WithPage(page))
	}

	if v := query.Get("pageSize"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return nil, service.Validation("invalid pageSize parameter: must be an integer")
		}
		opts = append(opts, service.WithPageSize(size))
	}

	sortBy, sortOrder := service.SortFieldDateUTC, service.SortOrderDesc
	if v := query.Get("sortBy"); v != "" {
		field, err := service.ParseSortField(v)
		if err != nil {
			return nil, service.Validation("%v", err)
		}
		sortBy = field
	}
	if v := query.Get("sortOrder"); v != "" {
		order, err := service.ParseSortOrder(v)
		if err != nil {
			return nil, service.Validation("%v", err)
		}
		sortOrder = order
	}
	opts = append(opts, service.WithSort(sortBy, sortOrder))

	if v := query.Get("success"); v != "" {
		success, err := strconv.ParseBool(v)
		if err != nil {
			return nil, service.Validation("invalid success parameter: must be true or false")
		}
		opts = append(opts, service.WithSuccess(success))
	}

	var from, to *time.Time
	if v := query.Get("fromDate"); v != "" {
		d, err := parseDate("fromDate", v)
		if err != nil {
			return nil, err
		}
		from = &d
	}
	if v := query.Get("toDate"); v != "" {
		d, err := parseDate("toDate", v)
		if err != nil {
			return nil, err
		}
		end := service.EndOfDay(d)
		to = &end
	}
	if from != nil || to != nil {
		opts = append(opts, service.WithDateRange(from, to))
	}

	if v := query.Get("searchTerm"); v != "" {
		opts = append(opts, service.WithSearch(v))
	}

	return opts, nil
}

func parseDate(name, value string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, service.Validation("invalid %s parameter %q: must be formatted as yyyy-MM-dd", name, value)
	}
	return d, nil
}
