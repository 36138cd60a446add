package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/launch-registry-server/internal/api/common"
	"github.com/stacklok/launch-registry-server/internal/service"
	"github.com/stacklok/launch-registry-server/internal/versions"
)

// HealthResponse represents the health and readiness check responses
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(store service.LaunchStore) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(store))
	r.Get("/version", versionHandler)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler reports ready once the store answers a count query
func readinessHandler(store service.LaunchStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := store.CountLaunches(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
			common.WriteJSONResponse(w, HealthResponse{Status: "not ready"}, http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, HealthResponse{Status: "ready"}, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
