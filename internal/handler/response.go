package handler

// Every error response has the same shape:
//
//	{"error": "not_found", "message": "Author with id 9 not found"}
//
// Services return apperror values; writeError is the single place where
// they become HTTP status codes.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/apperror"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all REST endpoints.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type listResponse[T any] struct {
	List []T `json:"list"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

// writeJSON sets headers before the status; anything set after WriteHeader
// is ignored.
func writeJSON(w http.ResponseWriter, logger zerolog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error().Err(err).Msg("failed to encode JSON response")
		}
	}
}

// writeError maps a domain error to an HTTP status. Errors that are not
// *apperror.AppError are logged and reported as a generic 500 so storage
// details never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, kind := http.StatusInternalServerError, "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status, kind = http.StatusBadRequest, "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status, kind = http.StatusUnauthorized, "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status, kind = http.StatusForbidden, "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status, kind = http.StatusNotFound, "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status, kind = http.StatusConflict, "conflict"
		}

		logger.Debug().Str("path", r.URL.Path).Int("status", status).Str("error", appErr.Message).Msg("request failed")
		writeJSON(w, logger, status, ErrorResponse{
			Error:   kind,
			Message: appErr.Message,
			Fields:  appErr.Details,
		})
		return
	}

	logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("unhandled error")
	writeJSON(w, logger, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a single JSON object from the request body. Unknown
// fields are rejected so typos in partial updates do not pass silently.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is required")
		}
		return apperror.ValidationFailed("body", fmt.Sprintf("invalid JSON body: %v", err))
	}
	if dec.More() {
		return apperror.ValidationFailed("body", "request body must contain a single JSON object")
	}
	return nil
}
