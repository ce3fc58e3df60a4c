package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/scopefs"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError maps err to a status code and writes it. Resolution failures
// that are neither missing nor forbidden paths are reported as 400.
func HandleError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError

	switch {
	case errors.Is(err, context.Canceled):
		slog.Debug("request canceled", "error", err)
	case errors.As(err, &maxErr):
		slog.Warn("upload too large", "limit", maxErr.Limit)
		WriteError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Upload exceeds the configured size limit")
	case errors.Is(err, scopefs.ErrIO):
		slog.Error("request error", "error", err)
		WriteError(w, http.StatusInternalServerError, "io_error", "Internal server error")
	case errors.Is(err, scopefs.ErrNotFound):
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusNotFound, "not_found", "Entry not found")
	case errors.Is(err, scopefs.ErrPermissionDenied):
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusForbidden, "forbidden", "Permission denied")
	case errors.Is(err, scopefs.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
	case errors.Is(err, scopefs.ErrInvalidEncoding):
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path encoding")
	case errors.Is(err, scopefs.ErrMissingTarget):
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "missing_target", "Missing X-File-Name header or multipart file part")
	case errors.Is(err, scopefs.ErrBadBoundary):
		slog.Debug("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "bad_boundary", "Invalid multipart boundary")
	default:
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "bad_request", "Bad request")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
