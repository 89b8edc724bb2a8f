package interactions

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/pkg/handlers"
	"github.com/JaimeStill/verity/pkg/middleware"
	"github.com/JaimeStill/verity/pkg/pagination"
	"github.com/JaimeStill/verity/pkg/routes"
)

// Handler provides HTTP endpoints for the audit store.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "interactions"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for interaction endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/interactions",
		Tags:        []string{"Audit"},
		Description: "Immutable audit trail of validated interactions",
		Schemas:     spec.Schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: spec.List},
			{Method: "GET", Pattern: "/export", Handler: h.Export, OpenAPI: spec.Export},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: spec.Find},
		},
	}
}

// ViolationRoutes returns the route group definition for violation queries.
func (h *Handler) ViolationRoutes() routes.Group {
	return routes.Group{
		Prefix:      "/violations",
		Tags:        []string{"Audit"},
		Description: "Violations recorded across the organization's interactions",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.ListViolations, OpenAPI: spec.ListViolations},
		},
	}
}

// List returns a page of the caller's interactions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	filters, err := FiltersFromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), orgID, page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns one interaction with its violations, verification results,
// citations, and explanation.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	detail, err := h.sys.Find(r.Context(), orgID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, detail)
}

// ListViolations returns a page of the caller's violations.
func (h *Handler) ListViolations(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	filters, err := ViolationFiltersFromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.ListViolations(r.Context(), orgID, page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Export renders the caller's interactions as CSV or JSON. Uploaded exports
// return their storage key; otherwise the content is streamed as an attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	filters, err := FiltersFromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	exp, err := h.sys.Export(r.Context(), orgID, format, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if exp.Key != "" {
		handlers.RespondJSON(w, http.StatusCreated, exp)
		return
	}

	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("audit_export_%s.%s", exp.CreatedAt.Format("20060102_150405"), exp.Format)),
	)
	w.WriteHeader(http.StatusOK)
	w.Write(exp.Data)
}
