package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gourl/idforge/internal/idgen"
	"github.com/gourl/idforge/internal/services"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	status, resp := mapErrorToResponse(err)
	writeJSON(w, status, resp)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Code: "INVALID_REQUEST"})
}

// mapErrorToResponse maps service errors to HTTP status codes and error responses.
func mapErrorToResponse(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, idgen.ErrUnknownFormat):
		return http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "UNKNOWN_FORMAT",
		}
	case errors.Is(err, idgen.ErrInvalidID):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_ID",
		}
	case errors.Is(err, idgen.ErrRandomSourceUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error: "secure random source unavailable",
			Code:  "RANDOM_SOURCE_UNAVAILABLE",
		}
	case errors.Is(err, services.ErrStatsUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error: err.Error(),
			Code:  "STATS_UNAVAILABLE",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{
			Error: "request timed out",
			Code:  "TIMEOUT",
		}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error: "request canceled",
			Code:  "REQUEST_CANCELED",
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		}
	}
}
