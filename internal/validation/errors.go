package validation

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/verity/internal/interactions"
	"github.com/JaimeStill/verity/pkg/middleware"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnknownOrganization = errors.New("unknown organization")
	ErrForbidden           = errors.New("organization does not match credentials")
)

// MapHTTPStatus maps validation errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, interactions.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownOrganization):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, middleware.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
