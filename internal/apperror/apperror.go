// Package apperror defines the domain error vocabulary shared by every layer.
//
// Services and repositories return these errors; transports (REST handlers,
// GraphQL resolvers) translate them into protocol responses with errors.Is.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // sentinel, one of the Err* values above
	Message string // human-readable error message
	Field   string // optional: field causing the error

	// Set by EntityNotFound.
	Entity string
	ID     int64

	// Per-field messages for validation errors with more than one failure.
	Details map[string]string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// EntityNotFound is raised by single-entity use cases (get, update, delete)
// when the requested id does not exist.
func EntityNotFound(entity string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s with id %d not found", entity, id),
		Entity:  entity,
		ID:      id,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// FromValidation converts the result of an ozzo-validation call into an
// AppError. Internal validator failures are returned unchanged.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}

	var fields validation.Errors
	if !errors.As(err, &fields) {
		return ValidationFailed("", err.Error())
	}

	names := make([]string, 0, len(fields))
	for name, fieldErr := range fields {
		if fieldErr != nil {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	details := make(map[string]string, len(names))
	parts := make([]string, 0, len(names))
	for _, name := range names {
		msg := fields[name].Error()
		details[name] = msg
		parts = append(parts, name+": "+msg)
	}

	return &AppError{
		Err:     ErrValidation,
		Message: strings.Join(parts, "; "),
		Field:   names[0],
		Details: details,
	}
}

func Conflict(resource, field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s with this %s already exists", resource, field),
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when credentials are missing or wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
