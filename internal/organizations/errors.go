package organizations

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/verity/pkg/middleware"
	"github.com/JaimeStill/verity/pkg/repository"
)

// Domain errors for organization operations.
var (
	ErrNotFound     = errors.New("organization not found")
	ErrDuplicate    = errors.New("organization already exists")
	ErrKeyNotFound  = errors.New("api key not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("admin token required")
)

// MapHTTPStatus maps organization domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, repository.ErrConstraint),
		errors.Is(err, repository.ErrReference):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, middleware.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
