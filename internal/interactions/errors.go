package interactions

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/verity/pkg/storage"
)

// Domain errors for audit store operations.
var (
	ErrNotFound      = errors.New("interaction not found")
	ErrDuplicate     = errors.New("interaction already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidFormat = errors.New("export format must be csv or json")
)

// MapHTTPStatus maps audit store errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidFormat) {
		return http.StatusBadRequest
	}
	return storage.MapHTTPStatus(err)
}
