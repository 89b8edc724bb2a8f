// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, cache, metrics, outbound clients)
// that domain systems require.
package infrastructure

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/verity/internal/config"
	"github.com/JaimeStill/verity/pkg/cache"
	"github.com/JaimeStill/verity/pkg/database"
	"github.com/JaimeStill/verity/pkg/lifecycle"
	"github.com/JaimeStill/verity/pkg/metrics"
	"github.com/JaimeStill/verity/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, export storage, the fact cache, metrics, and
// the outbound clients used by signal collectors.
//
// Storage is nil when no connection string is configured; exports are then
// streamed inline instead of uploaded. OpenAI is nil when no API key is set.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	Database   database.System
	Storage    storage.System
	Cache      cache.System
	Metrics    *metrics.Metrics
	HTTPClient *http.Client
	OpenAI     *openai.Client
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		if !errors.Is(err, storage.ErrDisabled) {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		logger.Info("export storage disabled, exports will stream inline")
		store = nil
	}

	var llm *openai.Client
	if cfg.Integrations.OpenAI.Enabled() {
		llm = newOpenAI(&cfg.Integrations.OpenAI)
	} else {
		logger.Info("openai disabled, corrections limited to substitutions")
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Cache:     cache.New(&cfg.Cache, logger),
		Metrics:   metrics.New(),
		HTTPClient: &http.Client{
			Timeout: cfg.Integrations.Sources.TimeoutDuration(),
		},
		OpenAI: llm,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database, storage, and cache hooks are registered for startup and shutdown coordination.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	if err := i.Cache.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("cache start failed: %w", err)
	}
	return nil
}

func newOpenAI(cfg *config.OpenAIConfig) *openai.Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.TimeoutDuration()}
	return openai.NewClientWithConfig(oc)
}
