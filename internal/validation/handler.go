package validation

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/pkg/handlers"
	"github.com/JaimeStill/verity/pkg/middleware"
	"github.com/JaimeStill/verity/pkg/routes"
)

// Validator runs one validation for an organization.
type Validator interface {
	Validate(ctx context.Context, orgID uuid.UUID, req Request) (*Response, error)
}

// Handler provides the validate endpoint.
type Handler struct {
	validator Validator
	logger    *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(validator Validator, logger *slog.Logger) *Handler {
	return &Handler{
		validator: validator,
		logger:    logger.With("handler", "validation"),
	}
}

// Routes returns the route group definition for the validate endpoint.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/validate",
		Tags:        []string{"Validation"},
		Description: "Validate AI responses and record the decision",
		Schemas:     spec.Schemas,
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Validate, OpenAPI: spec.Validate},
		},
	}
}

// Validate scores the posted response and returns the recorded decision.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return
	}

	req, err := handlers.DecodeValid[Request](r)
	if err != nil {
		handlers.RespondError(w, h.logger, handlers.DecodeStatus(err), fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}

	resp, err := h.validator.Validate(r.Context(), orgID, req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}
