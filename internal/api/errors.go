package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/query"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes based on the
// error type. Anything unrecognised is an internal server error.
func MapErrorToStatusCode(err error) int {
	var (
		parseErr   *query.ParseError
		castErr    *store.CastError
		requestErr *service.RequestError
	)

	switch {
	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrTaskNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.As(err, &parseErr),
		errors.As(err, &castErr),
		errors.As(err, &requestErr),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrInvalidQuery),
		errors.Is(err, shared.ErrInvalidBody):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage returns the text placed in the data field of an error
// response. Client errors carry their own message. Unexpected failures carry
// the message of the underlying error without the service context.
func ErrorMessage(err error) string {
	if err == nil {
		return http.StatusText(http.StatusInternalServerError)
	}

	var (
		requestErr *service.RequestError
		validErr   *domain.ValidationError
		parseErr   *query.ParseError
		castErr    *store.CastError
		serviceErr *service.ServiceError
	)

	switch {
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrEmailExists):
		return "User with this email already exists"

	case errors.As(err, &requestErr):
		return requestErr.Message

	case errors.As(err, &validErr):
		return validErr.Message

	case errors.As(err, &parseErr):
		return parseErr.Error()

	case errors.As(err, &castErr):
		return castErr.Error()

	case errors.Is(err, shared.ErrInvalidBody):
		return "Invalid JSON body"

	case errors.As(err, &serviceErr) && serviceErr.Err != nil:
		return serviceErr.Err.Error()

	default:
		return err.Error()
	}
}

// respondWithError writes the envelope for err using the status and message
// chosen by MapErrorToStatusCode and ErrorMessage.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), ErrorMessage(err), err)
}
