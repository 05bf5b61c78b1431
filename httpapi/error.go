package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/serverless/shutdownd/catalog"
	"github.com/serverless/shutdownd/registry"
	"github.com/serverless/shutdownd/shutdown"
)

// Response is the body of a failed request.
type Response struct {
	Errors []Error `json:"errors"`
}

// Error represents generic HTTP error returned by the admin API.
type Error struct {
	Message string `json:"message"`
}

// ErrMalformedJSON occurring when it's impossible to decode JSON payload.
type ErrMalformedJSON Error

// NewErrMalformedJSON creates ErrMalformedJSON.
func NewErrMalformedJSON(err error) *ErrMalformedJSON {
	return &ErrMalformedJSON{fmt.Sprintf("Malformed JSON payload: %s.", err.Error())}
}

func (e ErrMalformedJSON) Error() string {
	return e.Message
}

// ErrUnauthorized occurs when the bearer token cannot be verified.
type ErrUnauthorized struct {
	Reason string
}

func (e ErrUnauthorized) Error() string {
	return fmt.Sprintf("Unauthorized: %s.", e.Reason)
}

// statusCode maps a service error to the HTTP status returned for it.
func statusCode(err error) int {
	var (
		invalidMode *registry.ErrInvalidMode
		malformed   *ErrMalformedJSON
		invalid     *catalog.ErrDatabaseValidation
		registered  *catalog.ErrDatabaseAlreadyRegistered
		denied      *shutdown.ErrPermissionDenied
		protected   *shutdown.ErrProtectedDatabase
		notFound    *catalog.ErrDatabaseNotFound
		unauth      *ErrUnauthorized
		detached    *registry.ErrNotAttached
		full        *registry.ErrRegistryFull
	)
	switch {
	case errors.As(err, &invalidMode), errors.As(err, &malformed),
		errors.As(err, &invalid), errors.As(err, &registered):
		return http.StatusBadRequest
	case errors.As(err, &unauth):
		return http.StatusUnauthorized
	case errors.As(err, &denied), errors.As(err, &protected):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &detached), errors.As(err, &full):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
