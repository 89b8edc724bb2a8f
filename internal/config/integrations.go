package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// IntegrationsConfig holds settings for outbound collaborators: fact sources,
// citation fetching, and the OpenAI-compatible generative service.
type IntegrationsConfig struct {
	UserAgent     string        `toml:"user_agent"`
	CitationRate  float64       `toml:"citation_rate"`
	CitationBurst int           `toml:"citation_burst"`
	Sources       SourcesConfig `toml:"sources"`
	OpenAI        OpenAIConfig  `toml:"openai"`
}

// SourcesConfig configures the public fact sources.
type SourcesConfig struct {
	WikipediaURL  string `toml:"wikipedia_url"`
	DuckDuckGoURL string `toml:"duckduckgo_url"`
	Timeout       string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *SourcesConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// OpenAIConfig configures the OpenAI-compatible client used for generative
// correction and, when FactCheck is set, as an additional fact source.
type OpenAIConfig struct {
	APIKey      string `toml:"api_key"`
	BaseURL     string `toml:"base_url"`
	Model       string `toml:"model"`
	Timeout     string `toml:"timeout"`
	MaxAttempts int    `toml:"max_attempts"`
	FactCheck   bool   `toml:"fact_check"`
}

// Enabled reports whether an API key is configured.
func (c *OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *OpenAIConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *IntegrationsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. FactCheck always applies.
func (c *IntegrationsConfig) Merge(overlay *IntegrationsConfig) {
	if overlay.UserAgent != "" {
		c.UserAgent = overlay.UserAgent
	}
	if overlay.CitationRate != 0 {
		c.CitationRate = overlay.CitationRate
	}
	if overlay.CitationBurst != 0 {
		c.CitationBurst = overlay.CitationBurst
	}
	if overlay.Sources.WikipediaURL != "" {
		c.Sources.WikipediaURL = overlay.Sources.WikipediaURL
	}
	if overlay.Sources.DuckDuckGoURL != "" {
		c.Sources.DuckDuckGoURL = overlay.Sources.DuckDuckGoURL
	}
	if overlay.Sources.Timeout != "" {
		c.Sources.Timeout = overlay.Sources.Timeout
	}
	if overlay.OpenAI.APIKey != "" {
		c.OpenAI.APIKey = overlay.OpenAI.APIKey
	}
	if overlay.OpenAI.BaseURL != "" {
		c.OpenAI.BaseURL = overlay.OpenAI.BaseURL
	}
	if overlay.OpenAI.Model != "" {
		c.OpenAI.Model = overlay.OpenAI.Model
	}
	if overlay.OpenAI.Timeout != "" {
		c.OpenAI.Timeout = overlay.OpenAI.Timeout
	}
	if overlay.OpenAI.MaxAttempts != 0 {
		c.OpenAI.MaxAttempts = overlay.OpenAI.MaxAttempts
	}
	c.OpenAI.FactCheck = overlay.OpenAI.FactCheck
}

func (c *IntegrationsConfig) loadDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = "Verity/0.1 (+https://github.com/JaimeStill/verity)"
	}
	if c.CitationRate <= 0 {
		c.CitationRate = 5
	}
	if c.CitationBurst <= 0 {
		c.CitationBurst = 5
	}
	if c.Sources.WikipediaURL == "" {
		c.Sources.WikipediaURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"
	}
	if c.Sources.DuckDuckGoURL == "" {
		c.Sources.DuckDuckGoURL = "https://api.duckduckgo.com/"
	}
	if c.Sources.Timeout == "" {
		c.Sources.Timeout = "5s"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.Timeout == "" {
		c.OpenAI.Timeout = "20s"
	}
	if c.OpenAI.MaxAttempts <= 0 {
		c.OpenAI.MaxAttempts = 3
	}
}

func (c *IntegrationsConfig) loadEnv() {
	if v := os.Getenv("VERITY_HTTP_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("VERITY_OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("VERITY_OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("VERITY_OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("VERITY_OPENAI_FACT_CHECK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.OpenAI.FactCheck = b
		}
	}
}

func (c *IntegrationsConfig) validate() error {
	if _, err := time.ParseDuration(c.Sources.Timeout); err != nil {
		return fmt.Errorf("invalid sources.timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.OpenAI.Timeout); err != nil {
		return fmt.Errorf("invalid openai.timeout: %w", err)
	}
	return nil
}
