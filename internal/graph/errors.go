package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/apperror"
)

// Error codes reported in extensions.code.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// Error is a resolver error that graphql-go serialises with extensions.
type Error struct {
	Message string
	Code    string
	Fields  map[string]string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Extensions() map[string]any {
	ext := map[string]any{"code": e.Code}
	if len(e.Fields) > 0 {
		ext["fields"] = e.Fields
	}
	return ext
}

var errUnauthenticated = &Error{Message: "valid authentication required", Code: CodeUnauthenticated}

// toGraphQLError classifies err by its apperror sentinel. Anything else is
// logged and hidden behind a generic message.
func toGraphQLError(logger zerolog.Logger, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code := CodeInternal
		switch {
		case errors.Is(err, apperror.ErrValidation):
			code = CodeBadUserInput
		case errors.Is(err, apperror.ErrNotFound):
			code = CodeNotFound
		case errors.Is(err, apperror.ErrUnauthorized):
			code = CodeUnauthenticated
		case errors.Is(err, apperror.ErrForbidden):
			code = CodeForbidden
		case errors.Is(err, apperror.ErrConflict):
			code = CodeConflict
		}
		return &Error{Message: appErr.Message, Code: code, Fields: appErr.Details}
	}

	logger.Error().Err(err).Msg("graphql resolver failed")
	return &Error{Message: "Internal server error", Code: CodeInternal}
}

// panicLogger implements graphql-go's log.Logger.
type panicLogger struct {
	logger zerolog.Logger
}

func (l panicLogger) LogPanic(_ context.Context, value any) {
	l.logger.Error().Str("panic", fmt.Sprint(value)).Msg("graphql resolver panicked")
}
