package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// APIKeyHeader is the request header carrying the caller's API key.
const APIKeyHeader = "X-API-Key"

// ErrUnauthorized marks a missing, unknown, or expired API key.
var ErrUnauthorized = errors.New("invalid or missing API key")

// Principal identifies the organization a request acts on behalf of.
type Principal struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	KeyID          uuid.UUID `json:"key_id"`
}

// Authenticator resolves an API key to its owning principal.
// Implementations wrap ErrUnauthorized for rejected keys; any other error is a server fault.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (*Principal, error)
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated principal stored on ctx.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// OrganizationFrom returns the authenticated organization ID on ctx, or ErrUnauthorized.
func OrganizationFrom(ctx context.Context) (uuid.UUID, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}
	return p.OrganizationID, nil
}

// APIKey authenticates requests via the X-API-Key header and stores the principal
// in the request context. Requests for which skip returns true pass through untouched.
func APIKey(auth Authenticator, logger *slog.Logger, skip func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || (skip != nil && skip(r)) {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				unauthorized(w, logger, r, ErrUnauthorized)
				return
			}

			p, err := auth.Authenticate(r.Context(), key)
			if err != nil {
				if errors.Is(err, ErrUnauthorized) {
					unauthorized(w, logger, r, err)
					return
				}
				logger.Error("authentication failed", "error", err)
				writeError(w, http.StatusInternalServerError, "authentication unavailable")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func unauthorized(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	logger.Warn("request unauthorized", "uri", r.URL.RequestURI(), "addr", r.RemoteAddr, "error", err)
	writeError(w, http.StatusUnauthorized, ErrUnauthorized.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
