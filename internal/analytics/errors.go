package analytics

import (
	"errors"
	"net/http"
)

var ErrInvalidInput = errors.New("invalid input")

// MapHTTPStatus maps analytics errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
