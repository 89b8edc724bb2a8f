package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/verity/pkg/formatting"
	"github.com/JaimeStill/verity/pkg/middleware"
	"github.com/JaimeStill/verity/pkg/openapi"
	"github.com/JaimeStill/verity/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "VERITY_CORS_ENABLED",
	Origins:          "VERITY_CORS_ORIGINS",
	AllowedMethods:   "VERITY_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "VERITY_CORS_ALLOWED_HEADERS",
	AllowCredentials: "VERITY_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "VERITY_CORS_MAX_AGE",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "VERITY_OPENAPI_TITLE",
	Description: "VERITY_OPENAPI_DESCRIPTION",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "VERITY_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "VERITY_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, pagination, OpenAPI metadata, and bootstrap settings.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize string                `toml:"max_body_size"`
	AdminToken  string                `toml:"admin_token"`
	CORS        middleware.CORSConfig `toml:"cors"`
	Pagination  pagination.Config     `toml:"pagination"`
	OpenAPI     openapi.Config        `toml:"openapi"`
}

// MaxBodySizeBytes returns MaxBodySize in bytes. Finalize rejects an
// unparseable size, so the 1MiB fallback only covers unfinalized configs.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil {
		return 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS, pagination, and OpenAPI configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if _, err := formatting.ParseBytes(c.MaxBodySize); err != nil {
		return fmt.Errorf("invalid max_body_size: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}
	if overlay.AdminToken != "" {
		c.AdminToken = overlay.AdminToken
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("VERITY_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("VERITY_API_MAX_BODY_SIZE"); v != "" {
		c.MaxBodySize = v
	}
	if v := os.Getenv("VERITY_API_ADMIN_TOKEN"); v != "" {
		c.AdminToken = v
	}
}
