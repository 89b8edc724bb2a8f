package analytics

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/pkg/formatting"
	"github.com/JaimeStill/verity/pkg/handlers"
	"github.com/JaimeStill/verity/pkg/middleware"
	"github.com/JaimeStill/verity/pkg/routes"
)

// Handler provides HTTP endpoints for analytics.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "analytics"),
	}
}

// Routes returns the route group definition for analytics endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/analytics",
		Tags:        []string{"Analytics"},
		Description: "Aggregates, trends, comparisons, and impact estimates over the audit trail",
		Schemas:     spec.Schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/stats", Handler: h.Stats, OpenAPI: spec.Stats},
			{Method: "GET", Pattern: "/trends", Handler: h.Trends, OpenAPI: spec.Trends},
			{Method: "GET", Pattern: "/comparison", Handler: h.Compare, OpenAPI: spec.Compare},
			{Method: "GET", Pattern: "/impact", Handler: h.Impact, OpenAPI: spec.Impact},
		},
	}
}

// Stats returns summary statistics for the caller's interactions.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	orgID, win, ok := h.window(w, r)
	if !ok {
		return
	}

	stats, err := h.sys.Stats(r.Context(), orgID, win)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, stats)
}

// Trends returns a zero-filled bucketed series.
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	orgID, win, ok := h.window(w, r)
	if !ok {
		return
	}

	g, err := ParseGroupBy(r.URL.Query().Get("group_by"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	trends, err := h.sys.Trends(r.Context(), orgID, win, g)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, trends)
}

// Compare returns the before/after comparison around the split timestamp.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	raw := r.URL.Query().Get("split")
	if raw == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: split is required", ErrInvalidInput))
		return
	}

	split, _, err := formatting.ParseDate(raw)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: split: %v", ErrInvalidInput, err))
		return
	}

	cmp, err := h.sys.Compare(r.Context(), orgID, split)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, cmp)
}

// Impact returns the business impact estimate for a period.
func (h *Handler) Impact(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	p, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	impact, err := h.sys.Impact(r.Context(), orgID, p)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, impact)
}

func (h *Handler) window(w http.ResponseWriter, r *http.Request) (uuid.UUID, Window, bool) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return uuid.Nil, Window{}, false
	}

	q := r.URL.Query()
	win, err := ParseWindow(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return uuid.Nil, Window{}, false
	}

	return orgID, win, true
}
