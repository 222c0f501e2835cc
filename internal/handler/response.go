// Package handler contains the HTTP handlers. Handlers parse requests, call
// the service layer, and translate domain errors into status codes — no
// business rules live here.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/quotes-api/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints:
// a machine-readable type plus a human-readable message. A single shape means
// clients parse every failure the same way, whatever the status code.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageResponse is the standard body for operations whose success has no
// data payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must be written before the body; once Encode writes, header changes
// are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status and sends it.
//
// The service layer returns apperror sentinels wrapped (possibly several
// levels deep) with fmt.Errorf("...: %w", ...); errors.Is/As walk the chain.
// Anything without a recognized sentinel is a 500, and the raw error text is
// never exposed — it may contain SQL or file paths.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
			errorType = "unauthenticated"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrRateLimited):
			status = http.StatusTooManyRequests
			errorType = "rate_limited"
		}

		if status == http.StatusInternalServerError {
			// An AppError we don't map; treat like any unknown error.
			writeJSON(w, status, ErrorResponse{
				Error:   errorType,
				Message: "An internal error occurred",
			})
			return
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
