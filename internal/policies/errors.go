package policies

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/verity/pkg/repository"
)

// Domain errors for policy operations.
var (
	ErrNotFound     = errors.New("policy not found")
	ErrDuplicate    = errors.New("policy already exists")
	ErrInvalidInput = errors.New("invalid input")
)

// MapHTTPStatus maps policy domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, repository.ErrConstraint) ||
		errors.Is(err, repository.ErrReference) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
