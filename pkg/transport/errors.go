package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rhuss/strom/pkg/api"
)

// HTTPStatusFromError maps an error surfaced before streaming began to the
// corresponding HTTP status code. Request validation failures are the
// client's fault; engine failures mean the upstream backend misbehaved.
func HTTPStatusFromError(err error) int {
	var valErr *api.ValidationError
	if errors.As(err, &valErr) {
		return http.StatusBadRequest
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case api.ErrorKindEngine:
			return http.StatusBadGateway
		default:
			return http.StatusInternalServerError
		}
	}

	return http.StatusInternalServerError
}

// WriteErrorResponse writes a JSON error response using the ErrorResponse
// wrapper format from pkg/api. It sets the Content-Type header and writes
// the HTTP status code.
func WriteErrorResponse(w http.ResponseWriter, err error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.NewErrorResponse(err))
}

// WriteError writes an error response, deriving the HTTP status code from
// the error type.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorResponse(w, err, HTTPStatusFromError(err))
}
