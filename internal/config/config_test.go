package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "15m"
shutdown_timeout = "30s"

[database]
host = "localhost"
port = 5432
name = "verity"
user = "verity"
password = "verity"
ssl_mode = "disable"
max_open_conns = 25
max_idle_conns = 5
conn_max_lifetime = "15m"
conn_timeout = "5s"

[storage]
container_name = "exports"
connection_string = "DefaultEndpointsProtocol=http;AccountName=veritystore;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/veritystore;"

[cache]
addr = "localhost:6379"
ttl = "12h"

[api]
base_path = "/api"
admin_token = "bootstrap"

[api.cors]
enabled = false

[api.pagination]
default_page_size = 25
max_page_size = 50

[validation]
max_claims = 8

[validation.thresholds]
block = 0.45
flag = 0.7

[validation.organizations.6f1c2a9e-8d4b-4c3e-9a7f-1b2c3d4e5f60.weights]
fact_verification = 0.5
compliance = 0.5

[analytics]
brand_incident_cost = 75000.0

[integrations.openai]
model = "gpt-4o"
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"

[validation.thresholds]
block = 0.55
flag = 0.8
`

const minimalConfig = `
shutdown_timeout = "30s"

[server]
port = 8080

[database]
name = "verity"
user = "verity"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func loadFrom(t *testing.T, content string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", content)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := loadFrom(t, baseConfig)

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("db host: got %s, want localhost", cfg.Database.Host)
	}
	if cfg.Storage.ContainerName != "exports" {
		t.Errorf("storage container: got %s, want exports", cfg.Storage.ContainerName)
	}
	if !cfg.Cache.Enabled() || cfg.Cache.TTLDuration() != 12*time.Hour {
		t.Errorf("cache: got addr %q ttl %v", cfg.Cache.Addr, cfg.Cache.TTLDuration())
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("api base_path: got %s, want /api", cfg.API.BasePath)
	}
	if cfg.API.AdminToken != "bootstrap" {
		t.Errorf("api admin_token: got %s, want bootstrap", cfg.API.AdminToken)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("pagination default_page_size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination max_page_size: got %d, want 50", cfg.API.Pagination.MaxPageSize)
	}
	if cfg.Validation.MaxClaims != 8 {
		t.Errorf("validation max_claims: got %d, want 8", cfg.Validation.MaxClaims)
	}
	if cfg.Analytics.BrandIncidentCost != 75000 {
		t.Errorf("analytics brand_incident_cost: got %.0f, want 75000", cfg.Analytics.BrandIncidentCost)
	}
	if cfg.Analytics.LawsuitCost != 250000 {
		t.Errorf("analytics lawsuit_cost default: got %.0f, want 250000", cfg.Analytics.LawsuitCost)
	}
	if cfg.Integrations.OpenAI.Model != "gpt-4o" {
		t.Errorf("openai model: got %s, want gpt-4o", cfg.Integrations.OpenAI.Model)
	}
	if cfg.Integrations.OpenAI.Enabled() {
		t.Error("openai should be disabled without an api key")
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv("VERITY_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
	if cfg.Validation.Thresholds.Block != 0.55 || cfg.Validation.Thresholds.Flag != 0.8 {
		t.Errorf("thresholds: got %+v, want block 0.55 flag 0.8", cfg.Validation.Thresholds)
	}
	if len(cfg.Validation.Organizations) != 1 {
		t.Errorf("organization overrides should survive overlay, got %d", len(cfg.Validation.Organizations))
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("VERITY_VERSION", "2.0.0")
	t.Setenv("VERITY_SERVER_PORT", "3000")
	t.Setenv("VERITY_OPENAI_API_KEY", "sk-test")
	t.Setenv("VERITY_VALIDATION_FLAG_THRESHOLD", "0.9")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if !cfg.Integrations.OpenAI.Enabled() {
		t.Error("openai should be enabled from env api key")
	}
	if cfg.Validation.Thresholds.Flag != 0.9 {
		t.Errorf("flag threshold: got %.2f, want 0.9", cfg.Validation.Thresholds.Flag)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv("VERITY_DB_NAME", "testdb")
	t.Setenv("VERITY_DB_USER", "testuser")
	t.Setenv("VERITY_STORAGE_CONNECTION_STRING", "conn")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("db name from env: got %s, want testdb", cfg.Database.Name)
	}
	if cfg.Storage.ConnectionString != "conn" {
		t.Errorf("storage conn from env: got %s, want conn", cfg.Storage.ConnectionString)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `invalid = `)
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestEnvDefault(t *testing.T) {
	cfg := loadFrom(t, baseConfig)

	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}
}

func TestEnvFromEnvVar(t *testing.T) {
	t.Setenv("VERITY_ENV", "production")
	cfg := loadFrom(t, baseConfig)

	if cfg.Env() != "production" {
		t.Errorf("env: got %s, want production", cfg.Env())
	}
}

func TestShutdownTimeoutDuration(t *testing.T) {
	cfg := loadFrom(t, baseConfig)

	if d := cfg.ShutdownTimeoutDuration(); d != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", d)
	}
}

func TestServerAddr(t *testing.T) {
	cfg := loadFrom(t, baseConfig)

	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Errorf("addr: got %s, want 0.0.0.0:8080", addr)
	}
}

func TestDefaults(t *testing.T) {
	cfg := loadFrom(t, minimalConfig)

	if cfg.API.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default_page_size: got %d, want 20", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.API.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination max_page_size: got %d, want 100", cfg.API.Pagination.MaxPageSize)
	}
	if cfg.Storage.Enabled() {
		t.Error("storage should be disabled without a connection string")
	}
	if cfg.Cache.Enabled() {
		t.Error("cache should be disabled without an address")
	}

	w := cfg.Validation.Weights
	if w.FactVerification != 0.35 || w.Compliance != 0.25 || w.ResponseClarity != 0.10 {
		t.Errorf("default weights: got %+v", w)
	}
	if cfg.Validation.Thresholds.Block != 0.5 || cfg.Validation.Thresholds.Flag != 0.75 {
		t.Errorf("default thresholds: got %+v", cfg.Validation.Thresholds)
	}
	if cfg.Validation.CitationTimeoutDuration() != 15*time.Second {
		t.Errorf("citation timeout: got %v, want 15s", cfg.Validation.CitationTimeoutDuration())
	}
	if cfg.Validation.Matcher != "substring" {
		t.Errorf("matcher: got %s, want substring", cfg.Validation.Matcher)
	}
	if cfg.Integrations.Sources.TimeoutDuration() != 5*time.Second {
		t.Errorf("sources timeout: got %v, want 5s", cfg.Integrations.Sources.TimeoutDuration())
	}
}

func TestValidationSettings(t *testing.T) {
	cfg := loadFrom(t, baseConfig)

	org := uuid.MustParse("6f1c2a9e-8d4b-4c3e-9a7f-1b2c3d4e5f60")
	settings := cfg.Validation.Settings()

	profile, thresholds, renormalized := settings.For(org)
	if renormalized {
		t.Error("override summing to 1 should not be renormalized")
	}
	if profile.FactVerification != 0.5 || profile.Compliance != 0.5 {
		t.Errorf("override profile: got %+v", profile)
	}
	if thresholds.Block != 0.45 {
		t.Errorf("thresholds should fall back to default block 0.45, got %.2f", thresholds.Block)
	}
}

func TestPaginationEnvOverrides(t *testing.T) {
	t.Setenv("VERITY_PAGINATION_DEFAULT_PAGE_SIZE", "10")
	t.Setenv("VERITY_PAGINATION_MAX_PAGE_SIZE", "200")
	cfg := loadFrom(t, baseConfig)

	if cfg.API.Pagination.DefaultPageSize != 10 {
		t.Errorf("pagination default_page_size: got %d, want 10", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.API.Pagination.MaxPageSize != 200 {
		t.Errorf("pagination max_page_size: got %d, want 200", cfg.API.Pagination.MaxPageSize)
	}
}

func TestPaginationEnvRejectsNonNumeric(t *testing.T) {
	t.Setenv("VERITY_PAGINATION_MAX_PAGE_SIZE", "many")
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "VERITY_PAGINATION_MAX_PAGE_SIZE") {
		t.Errorf("error %q should name the variable", err.Error())
	}
}

func TestMaxBodySizeBytes(t *testing.T) {
	tests := []struct {
		name string
		size string
		want int64
	}{
		{"valid 1MB", "1MB", 1024 * 1024},
		{"valid 512KB", "512KB", 512 * 1024},
		{"IEC unit", "2MiB", 2 * 1024 * 1024},
		{"invalid falls back to 1MB", "bad", 1024 * 1024},
		{"empty falls back to 1MB", "", 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.APIConfig{MaxBodySize: tt.size}
			if got := cfg.MaxBodySizeBytes(); got != tt.want {
				t.Errorf("MaxBodySizeBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name: "invalid port",
			config: `
[server]
port = 99999

[database]
name = "verity"
user = "verity"
`,
			wantErr: "invalid port",
		},
		{
			name: "weights not summing to one",
			config: minimalConfig + `
[validation.weights]
fact_verification = 0.5
compliance = 0.2
`,
			wantErr: "invalid weight profile",
		},
		{
			name: "inverted thresholds",
			config: minimalConfig + `
[validation.thresholds]
block = 0.9
flag = 0.5
`,
			wantErr: "invalid thresholds",
		},
		{
			name: "bad organization key",
			config: minimalConfig + `
[validation.organizations.acme.thresholds]
block = 0.4
flag = 0.6
`,
			wantErr: "invalid organization override key",
		},
		{
			name: "unknown matcher",
			config: minimalConfig + `
[validation]
matcher = "fuzzy"
`,
			wantErr: "invalid matcher",
		},
		{
			name: "negative cost",
			config: minimalConfig + `
[analytics]
lawsuit_cost = -1.0
`,
			wantErr: "invalid lawsuit_cost",
		},
		{
			name: "unparseable body size",
			config: minimalConfig + `
[api]
max_body_size = "lots"
`,
			wantErr: "invalid max_body_size",
		},
		{
			name: "page size above max",
			config: minimalConfig + `
[api.pagination]
default_page_size = 80
max_page_size = 40
`,
			wantErr: "default_page_size 80 exceeds max_page_size 40",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", tt.config)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
