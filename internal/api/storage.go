package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/JaimeStill/verity/internal/interactions"
	"github.com/JaimeStill/verity/pkg/handlers"
	"github.com/JaimeStill/verity/pkg/middleware"
	"github.com/JaimeStill/verity/pkg/openapi"
	"github.com/JaimeStill/verity/pkg/routes"
	"github.com/JaimeStill/verity/pkg/storage"
)

var keyParam = openapi.PathParam("key", "Export key as returned by the export endpoint")

// exportHandler serves uploaded audit exports. Keys outside the caller's
// export prefix are reported as not found.
type exportHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newExportHandler(store storage.System, logger *slog.Logger) *exportHandler {
	return &exportHandler{
		store:  store,
		logger: logger.With("handler", "exports"),
	}
}

func (h *exportHandler) routes() routes.Group {
	return routes.Group{
		Prefix:      "/exports",
		Tags:        []string{"Audit"},
		Description: "Uploaded audit exports",
		Routes: []routes.Route{
			{
				Method: "GET", Pattern: "/download/{key...}", Handler: h.download,
				OpenAPI: &openapi.Operation{
					Summary:    "Download an uploaded export",
					Parameters: []*openapi.Parameter{keyParam},
					Responses: map[int]*openapi.Response{
						200: {Description: "Export content"},
						404: openapi.ResponseRef("NotFound"),
						503: openapi.ResponseRef("ServiceUnavailable"),
					},
				},
			},
			{
				Method: "GET", Pattern: "/{key...}", Handler: h.find,
				OpenAPI: &openapi.Operation{
					Summary:    "Check that an uploaded export exists",
					Parameters: []*openapi.Parameter{keyParam},
					Responses: map[int]*openapi.Response{
						200: {Description: "Export exists"},
						404: openapi.ResponseRef("NotFound"),
						503: openapi.ResponseRef("ServiceUnavailable"),
					},
				},
			},
			{
				Method: "DELETE", Pattern: "/{key...}", Handler: h.delete,
				OpenAPI: &openapi.Operation{
					Summary:    "Delete an uploaded export",
					Parameters: []*openapi.Parameter{keyParam},
					Responses: map[int]*openapi.Response{
						204: {Description: "Export deleted"},
						404: openapi.ResponseRef("NotFound"),
						503: openapi.ResponseRef("ServiceUnavailable"),
					},
				},
			},
		},
	}
}

// owned resolves the request key and verifies it belongs to the caller.
func (h *exportHandler) owned(w http.ResponseWriter, r *http.Request) (string, bool) {
	orgID, err := middleware.OrganizationFrom(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, err)
		return "", false
	}

	if h.store == nil {
		handlers.RespondError(w, h.logger, http.StatusServiceUnavailable, storage.ErrDisabled)
		return "", false
	}

	key := r.PathValue("key")
	if !strings.HasPrefix(key, interactions.ExportPrefix(orgID)) {
		handlers.RespondError(w, h.logger, http.StatusNotFound, storage.ErrNotFound)
		return "", false
	}

	return key, true
}

func (h *exportHandler) find(w http.ResponseWriter, r *http.Request) {
	key, ok := h.owned(w, r)
	if !ok {
		return
	}

	exists, err := h.store.Exists(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	if !exists {
		handlers.RespondError(w, h.logger, http.StatusNotFound, storage.ErrNotFound)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]string{"key": key})
}

func (h *exportHandler) download(w http.ResponseWriter, r *http.Request) {
	key, ok := h.owned(w, r)
	if !ok {
		return
	}

	result, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			storage.MapHTTPStatus(err), err,
		)
		return
	}
	defer result.Body.Close()

	w.Header().Set("Content-Type", result.ContentType)

	if result.ContentLength > 0 {
		w.Header().Set(
			"Content-Length",
			strconv.FormatInt(result.ContentLength, 10),
		)
	}
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, result.Body)
}

func (h *exportHandler) delete(w http.ResponseWriter, r *http.Request) {
	key, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), key); err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	h.logger.Info("audit export deleted", "key", key)
	w.WriteHeader(http.StatusNoContent)
}
