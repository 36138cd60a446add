// Package common provides shared HTTP helpers for the API handlers.
package common

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/stacklok/launch-registry-server/internal/service"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Code    service.Kind `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
}

// WriteJSONResponse writes a JSON response with the given data
func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// StatusForKind maps an error kind to its HTTP status
func StatusForKind(kind service.Kind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindHTTP:
		return http.StatusBadGateway
	case service.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse renders err as an ErrorResponse. Errors that are not a
// *service.Error are reported with fallback as their message.
func WriteErrorResponse(w http.ResponseWriter, err error, fallback string) {
	svcErr := service.AsError(err, fallback)
	status := StatusForKind(svcErr.Kind)

	resp := ErrorResponse{
		Code:    svcErr.Kind,
		Message: svcErr.Message,
		Details: svcErr.Detail,
	}
	// internal causes are logged, never returned
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "kind", svcErr.Kind, "error", err)
	}

	WriteJSONResponse(w, resp, status)
}
