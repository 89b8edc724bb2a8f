package api

import (
	"time"

	"github.com/JaimeStill/verity/internal/config"
	"github.com/JaimeStill/verity/internal/infrastructure"
	"github.com/JaimeStill/verity/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination   pagination.Config
	Validation   config.ValidationConfig
	Analytics    config.AnalyticsConfig
	Integrations config.IntegrationsConfig
	CacheTTL     time.Duration
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle:  infra.Lifecycle,
			Logger:     infra.Logger.With("module", "api"),
			Database:   infra.Database,
			Storage:    infra.Storage,
			Cache:      infra.Cache,
			Metrics:    infra.Metrics,
			HTTPClient: infra.HTTPClient,
			OpenAI:     infra.OpenAI,
		},
		Pagination:   cfg.API.Pagination,
		Validation:   cfg.Validation,
		Analytics:    cfg.Analytics,
		Integrations: cfg.Integrations,
		CacheTTL:     cfg.Cache.TTLDuration(),
	}
}
