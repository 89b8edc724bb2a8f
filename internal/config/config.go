package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/verity/pkg/cache"
	"github.com/JaimeStill/verity/pkg/database"
	"github.com/JaimeStill/verity/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvVerityEnv             = "VERITY_ENV"
	EnvVerityShutdownTimeout = "VERITY_SHUTDOWN_TIMEOUT"
	EnvVerityVersion         = "VERITY_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "VERITY_DB_DSN",
	Host:            "VERITY_DB_HOST",
	Port:            "VERITY_DB_PORT",
	Name:            "VERITY_DB_NAME",
	User:            "VERITY_DB_USER",
	Password:        "VERITY_DB_PASSWORD",
	SSLMode:         "VERITY_DB_SSL_MODE",
	MaxOpenConns:    "VERITY_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "VERITY_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "VERITY_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "VERITY_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "VERITY_STORAGE_CONTAINER_NAME",
	ConnectionString: "VERITY_STORAGE_CONNECTION_STRING",
}

var cacheEnv = &cache.Env{
	Addr:        "VERITY_CACHE_ADDR",
	Password:    "VERITY_CACHE_PASSWORD",
	DB:          "VERITY_CACHE_DB",
	TTL:         "VERITY_CACHE_TTL",
	DialTimeout: "VERITY_CACHE_DIAL_TIMEOUT",
}

// Config is the root configuration for the Verity service.
type Config struct {
	Server          ServerConfig       `toml:"server"`
	Database        database.Config    `toml:"database"`
	Storage         storage.Config     `toml:"storage"`
	Cache           cache.Config       `toml:"cache"`
	API             APIConfig          `toml:"api"`
	Validation      ValidationConfig   `toml:"validation"`
	Analytics       AnalyticsConfig    `toml:"analytics"`
	Integrations    IntegrationsConfig `toml:"integrations"`
	ShutdownTimeout string             `toml:"shutdown_timeout"`
	Version         string             `toml:"version"`
}

// Env returns the VERITY_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvVerityEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Cache.Merge(&overlay.Cache)
	c.API.Merge(&overlay.API)
	c.Validation.Merge(&overlay.Validation)
	c.Analytics.Merge(&overlay.Analytics)
	c.Integrations.Merge(&overlay.Integrations)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Cache.Finalize(cacheEnv); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Validation.Finalize(); err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	if err := c.Analytics.Finalize(); err != nil {
		return fmt.Errorf("analytics: %w", err)
	}
	if err := c.Integrations.Finalize(); err != nil {
		return fmt.Errorf("integrations: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvVerityShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvVerityVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvVerityEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
