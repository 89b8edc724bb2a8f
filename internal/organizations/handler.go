package organizations

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/pkg/handlers"
	"github.com/JaimeStill/verity/pkg/middleware"
	"github.com/JaimeStill/verity/pkg/routes"
)

// AdminTokenHeader carries the bootstrap token required to create organizations.
const AdminTokenHeader = "X-Admin-Token"

// Handler provides HTTP endpoints for organization and API key operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	adminToken string
}

// NewHandler creates a Handler. An empty adminToken disables organization bootstrap.
func NewHandler(sys System, logger *slog.Logger, adminToken string) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "organizations"),
		adminToken: adminToken,
	}
}

// Routes returns the route group definition for organization endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/organizations",
		Tags:        []string{"Organizations"},
		Description: "Tenant registration and API key management",
		Schemas:     spec.Schemas,
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Create, OpenAPI: spec.Create},
			{Method: "GET", Pattern: "/me", Handler: h.Me, OpenAPI: spec.Me},
			{Method: "GET", Pattern: "/me/keys", Handler: h.ListKeys, OpenAPI: spec.ListKeys},
			{Method: "POST", Pattern: "/me/keys", Handler: h.CreateKey, OpenAPI: spec.CreateKey},
			{Method: "DELETE", Pattern: "/me/keys/{id}", Handler: h.RevokeKey, OpenAPI: spec.RevokeKey},
		},
	}
}

// Create registers an organization and returns it with its first API key.
// Requires the X-Admin-Token header to match the configured admin token.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.authorizedAdmin(r) {
		handlers.RespondError(w, h.logger, http.StatusForbidden, ErrForbidden)
		return
	}

	cmd, err := handlers.DecodeValid[CreateCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}

	reg, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, reg)
}

// Me returns the organization that owns the calling API key.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	org, err := h.sys.Find(r.Context(), orgID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, org)
}

// ListKeys returns the API keys of the calling organization without their raw values.
func (h *Handler) ListKeys(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	keys, err := h.sys.ListKeys(r.Context(), orgID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, keys)
}

// CreateKey issues an additional API key for the calling organization.
func (h *Handler) CreateKey(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	cmd, err := handlers.DecodeValid[CreateKeyCommand](r)
	if err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}

	key, err := h.sys.CreateKey(r.Context(), orgID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, key)
}

// RevokeKey deactivates one of the calling organization's API keys.
func (h *Handler) RevokeKey(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	keyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	if err := h.sys.RevokeKey(r.Context(), orgID, keyID); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) authorizedAdmin(r *http.Request) bool {
	if h.adminToken == "" {
		return false
	}
	got := r.Header.Get(AdminTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.adminToken)) == 1
}
