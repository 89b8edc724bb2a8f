package rules

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/pkg/handlers"
	"github.com/JaimeStill/verity/pkg/middleware"
	"github.com/JaimeStill/verity/pkg/pagination"
	"github.com/JaimeStill/verity/pkg/routes"
)

// Handler provides HTTP endpoints for compliance rule operations.
type Handler struct {
	sys        System
	tester     Tester
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler. tester backs the dry-run test endpoint.
func NewHandler(sys System, tester Tester, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		tester:     tester,
		logger:     logger.With("handler", "rules"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for rule endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/rules",
		Tags:        []string{"Rules"},
		Description: "Versioned compliance rules and regulatory templates",
		Schemas:     spec.Schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: spec.List},
			{Method: "POST", Pattern: "", Handler: h.Create, OpenAPI: spec.Create},
			{Method: "GET", Pattern: "/templates", Handler: h.Templates, OpenAPI: spec.Templates},
			{Method: "POST", Pattern: "/templates/{key}", Handler: h.Install, OpenAPI: spec.Install},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: spec.Find},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update, OpenAPI: spec.Update},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, OpenAPI: spec.Delete},
			{Method: "POST", Pattern: "/{id}/test", Handler: h.Test, OpenAPI: spec.Test},
		},
	}
}

// List returns rules visible to the caller: its own plus global rules.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), orgID, page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single visible rule by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.scope(w, r)
	if !ok {
		return
	}

	rule, err := h.sys.Find(r.Context(), orgID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rule)
}

// Create adds a rule owned by the caller's organization.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	cmd, err := handlers.DecodeValid[Command](r)
	if err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}

	rule, err := h.sys.Create(r.Context(), orgID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, rule)
}

// Update replaces a rule owned by the caller and increments its version.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.scope(w, r)
	if !ok {
		return
	}

	cmd, err := handlers.DecodeValid[Command](r)
	if err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}

	rule, err := h.sys.Update(r.Context(), orgID, id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rule)
}

// Delete removes a rule owned by the caller.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.scope(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), orgID, id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Test evaluates a visible rule against submitted text without persisting anything.
func (h *Handler) Test(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.scope(w, r)
	if !ok {
		return
	}

	req, err := handlers.DecodeValid[TestRequest](r)
	if err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}

	rule, err := h.sys.Find(r.Context(), orgID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	found := h.tester.TestRule(r.Context(), *rule, req.Text)

	handlers.RespondJSON(w, http.StatusOK, TestResult{
		RuleID:     rule.ID,
		Kind:       rule.Definition.Kind(),
		Matched:    len(found) > 0,
		Action:     rule.Action(),
		Violations: found,
	})
}

// Templates lists the regulatory rule templates available for installation.
func (h *Handler) Templates(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Templates())
}

// Install creates an organization-owned rule from a template key.
func (h *Handler) Install(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	rule, err := h.sys.InstallTemplate(r.Context(), orgID, r.PathValue("key"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, rule)
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return uuid.Nil, uuid.Nil, false
	}

	return orgID, id, true
}
