// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/verity/internal/config"
	"github.com/JaimeStill/verity/internal/infrastructure"
	"github.com/JaimeStill/verity/pkg/middleware"
	"github.com/JaimeStill/verity/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// Every route except the OpenAPI document and organization bootstrap requires an API key.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg, runtime); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Metrics(runtime.Metrics.HTTPRequests))
	m.Use(middleware.MaxBody(cfg.API.MaxBodySizeBytes()))
	m.Use(middleware.APIKey(domain.Organizations, runtime.Logger, public))

	return m, nil
}

// public reports routes reachable without an API key. Organization creation
// is guarded by the admin token instead.
func public(r *http.Request) bool {
	if r.Method == http.MethodGet && r.URL.Path == SpecPath {
		return true
	}
	return r.Method == http.MethodPost && r.URL.Path == "/organizations"
}
