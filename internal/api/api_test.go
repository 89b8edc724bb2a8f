package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/verity/internal/api"
	"github.com/JaimeStill/verity/internal/config"
	"github.com/JaimeStill/verity/internal/infrastructure"
	"github.com/JaimeStill/verity/pkg/cache"
	"github.com/JaimeStill/verity/pkg/database"
	"github.com/JaimeStill/verity/pkg/middleware"
	"github.com/JaimeStill/verity/pkg/openapi"
	"github.com/JaimeStill/verity/pkg/pagination"
	"github.com/JaimeStill/verity/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=veritystore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/veritystore;"

func validConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "2m",
			ShutdownTimeout: "30s",
		},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "verity",
			User:            "verity",
			Password:        "verity",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "exports",
			ConnectionString: azuriteConnString,
		},
		Cache: cache.Config{
			TTL:         "24h",
			DialTimeout: "5s",
		},
		API: config.APIConfig{
			BasePath:    "/api",
			MaxBodySize: "1MB",
			CORS: middleware.CORSConfig{
				Enabled: false,
			},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
			OpenAPI: openapi.Config{
				Title:       "Verity API",
				Description: "test",
			},
		},
		Validation: config.ValidationConfig{
			Matcher:      "substring",
			MaxClaims:    10,
			MaxCitations: 5,
			Concurrency:  4,
			HistoryLimit: 10,
		},
		Analytics: config.AnalyticsConfig{
			BrandIncidentCost: 50000,
			LawsuitCost:       250000,
		},
		Integrations: config.IntegrationsConfig{
			UserAgent:     "verity-test",
			CitationRate:  5,
			CitationBurst: 5,
			Sources: config.SourcesConfig{
				WikipediaURL:  "http://127.0.0.1:1/wiki/",
				DuckDuckGoURL: "http://127.0.0.1:1/ddg/",
				Timeout:       "1s",
			},
			OpenAI: config.OpenAIConfig{
				Model:   "gpt-4o-mini",
				Timeout: "5s",
			},
		},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
}

func setupInfra(t *testing.T) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	return infra
}

func TestNewModule(t *testing.T) {
	cfg := validConfig()
	infra := setupInfra(t)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewModuleInvalidMatcher(t *testing.T) {
	cfg := validConfig()
	cfg.Validation.Matcher = "fuzzy"

	if _, err := api.NewModule(cfg, setupInfra(t)); err == nil {
		t.Fatal("expected error for unknown matcher")
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig()
	infra := setupInfra(t)

	runtime := api.NewRuntime(cfg, infra)

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if runtime.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination max page size: got %d, want 100", runtime.Pagination.MaxPageSize)
	}
	if runtime.Logger == nil {
		t.Error("runtime logger is nil")
	}
	if runtime.Database == nil {
		t.Error("runtime database is nil")
	}
	if runtime.Storage == nil {
		t.Error("runtime storage is nil")
	}
	if runtime.Lifecycle == nil {
		t.Error("runtime lifecycle is nil")
	}
	if runtime.Metrics == nil {
		t.Error("runtime metrics is nil")
	}
	if runtime.CacheTTL.Hours() != 24 {
		t.Errorf("cache ttl: got %v, want 24h", runtime.CacheTTL)
	}
	if runtime.Analytics.LawsuitCost != 250000 {
		t.Errorf("lawsuit cost: got %v, want 250000", runtime.Analytics.LawsuitCost)
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig()
	infra := setupInfra(t)
	runtime := api.NewRuntime(cfg, infra)

	domain, err := api.NewDomain(runtime)
	if err != nil {
		t.Fatalf("NewDomain() error = %v", err)
	}

	if domain.Organizations == nil {
		t.Error("organizations system is nil")
	}
	if domain.Rules == nil {
		t.Error("rules system is nil")
	}
	if domain.Policies == nil {
		t.Error("policies system is nil")
	}
	if domain.Interactions == nil {
		t.Error("interactions system is nil")
	}
	if domain.Validation == nil {
		t.Error("validation pipeline is nil")
	}
	if domain.Analytics == nil {
		t.Error("analytics system is nil")
	}
}

func serve(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	m, err := api.NewModule(validConfig(), setupInfra(t))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	rec := httptest.NewRecorder()
	m.Serve(rec, req)
	return rec
}

func TestOpenAPISpecIsPublic(t *testing.T) {
	rec := serve(t, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var spec openapi.Spec
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("decode spec: %v", err)
	}

	if spec.Info.Title != "Verity API" {
		t.Errorf("title: got %q", spec.Info.Title)
	}
	for _, path := range []string{
		"/organizations",
		"/rules",
		"/policies",
		"/validate",
		"/interactions",
		"/violations",
		"/analytics/stats",
		"/analytics/trends",
		"/analytics/comparison",
		"/analytics/impact",
		"/exports/download/{key}",
	} {
		if _, ok := spec.Paths[path]; !ok {
			t.Errorf("spec missing path %s", path)
		}
	}
	if _, ok := spec.Components.Schemas["ValidationResponse"]; !ok {
		t.Error("spec missing ValidationResponse schema")
	}
}

func TestRoutesRequireAPIKey(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/validate"},
		{http.MethodGet, "/api/rules"},
		{http.MethodGet, "/api/interactions"},
		{http.MethodGet, "/api/analytics/stats"},
		{http.MethodGet, "/api/organizations/me"},
		{http.MethodGet, "/api/exports/download/exports/x.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(t, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status: got %d, want 401", rec.Code)
			}
		})
	}
}

func TestOrganizationBootstrapSkipsAPIKey(t *testing.T) {
	rec := serve(t, httptest.NewRequest(http.MethodPost, "/api/organizations", nil))

	// No admin token is configured, so the handler itself rejects the request.
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}
