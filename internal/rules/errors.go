package rules

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/verity/pkg/repository"
)

// Domain errors for rule operations.
var (
	ErrNotFound         = errors.New("rule not found")
	ErrDuplicate        = errors.New("rule already exists")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemplateNotFound = errors.New("rule template not found")
)

// MapHTTPStatus maps rule domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrTemplateNotFound) {
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
