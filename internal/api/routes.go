package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/verity/internal/config"
	"github.com/JaimeStill/verity/pkg/openapi"
	"github.com/JaimeStill/verity/pkg/routes"
)

// SpecPath is the module-relative path of the generated OpenAPI document.
const SpecPath = "/openapi.json"

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	interactionsHandler := domain.Interactions.Handler()

	groups := []routes.Group{
		domain.Organizations.Handler(cfg.API.AdminToken).Routes(),
		domain.Rules.Handler(domain.Evaluator).Routes(),
		domain.Policies.Handler().Routes(),
		domain.Validation.Handler().Routes(),
		interactionsHandler.Routes(),
		interactionsHandler.ViolationRoutes(),
		domain.Analytics.Handler().Routes(),
		newExportHandler(runtime.Storage, runtime.Logger).routes(),
	}

	routes.Register(mux, groups...)

	spec, err := buildSpec(cfg, groups)
	if err != nil {
		return err
	}
	mux.HandleFunc("GET "+SpecPath, openapi.ServeSpec(spec))

	return nil
}

func buildSpec(cfg *config.Config, groups []routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)
	spec.RequireAPIKey()

	routes.Document(spec, "", groups...)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}
	return data, nil
}
