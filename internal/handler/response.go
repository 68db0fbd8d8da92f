// Package handler is the HTTP layer: it parses requests, calls services,
// and writes JSON responses. Domain errors from the service layer are
// translated to HTTP status codes here and nowhere else.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
)

// ErrorResponse is the error shape returned by every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending field for validation errors
}

// maxBodySize bounds request bodies; lesson content and chat histories
// stay well under this.
const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status. Errors that carry no
// apperror sentinel become an opaque 500; raw error text never reaches
// the client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := "internal_error"
	message := "an internal error occurred"
	field := ""

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		field = appErr.Field

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status, kind = http.StatusBadRequest, "validation_error"
		case errors.Is(err, apperror.ErrNotAuthenticated):
			status, kind = http.StatusUnauthorized, "not_authenticated"
		case errors.Is(err, apperror.ErrForbidden):
			status, kind = http.StatusForbidden, "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status, kind = http.StatusNotFound, "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status, kind = http.StatusConflict, "conflict"
		case errors.Is(err, apperror.ErrExternal):
			status, kind = http.StatusBadGateway, "external_error"
		case errors.Is(err, apperror.ErrBackend):
			status, kind = http.StatusInternalServerError, "internal_error"
		}
	}

	writeJSON(w, status, ErrorResponse{Error: kind, Message: message, Field: field})
}

// decodeBody parses a JSON request body into dst, rejecting unknown
// fields and oversized payloads.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("", "request body is not valid JSON")
	}
	return nil
}
