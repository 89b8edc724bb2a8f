package config

import (
	"fmt"
	"maps"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verity/internal/scoring"
)

// ValidationConfig holds the scoring profile, decision thresholds,
// per-collaborator timeouts, and fan-out limits of the validation pipeline.
type ValidationConfig struct {
	Weights            scoring.Profile             `toml:"weights"`
	Thresholds         scoring.Thresholds          `toml:"thresholds"`
	Organizations      map[string]scoring.Override `toml:"organizations"`
	RulesTimeout       string                      `toml:"rules_timeout"`
	FactTimeout        string                      `toml:"fact_timeout"`
	CitationTimeout    string                      `toml:"citation_timeout"`
	ConsistencyTimeout string                      `toml:"consistency_timeout"`
	CorrectionTimeout  string                      `toml:"correction_timeout"`
	MaxClaims          int                         `toml:"max_claims"`
	MaxCitations       int                         `toml:"max_citations"`
	Concurrency        int                         `toml:"concurrency"`
	HistoryLimit       int                         `toml:"history_limit"`
	Matcher            string                      `toml:"matcher"`
}

func (c *ValidationConfig) RulesTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RulesTimeout)
	return d
}

func (c *ValidationConfig) FactTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.FactTimeout)
	return d
}

func (c *ValidationConfig) CitationTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.CitationTimeout)
	return d
}

func (c *ValidationConfig) ConsistencyTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConsistencyTimeout)
	return d
}

func (c *ValidationConfig) CorrectionTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.CorrectionTimeout)
	return d
}

// Settings converts the profile, thresholds, and organization overrides into
// scoring settings. Override keys are validated during Finalize.
func (c *ValidationConfig) Settings() scoring.Settings {
	overrides := make(map[uuid.UUID]scoring.Override, len(c.Organizations))
	for key, o := range c.Organizations {
		if id, err := uuid.Parse(key); err == nil {
			overrides[id] = o
		}
	}
	return scoring.Settings{
		Profile:    c.Weights,
		Thresholds: c.Thresholds,
		Overrides:  overrides,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
// A default weight profile that does not sum to 1 is rejected here.
func (c *ValidationConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Organization overrides merge by key.
func (c *ValidationConfig) Merge(overlay *ValidationConfig) {
	if !overlay.Weights.IsZero() {
		c.Weights = overlay.Weights
	}
	if overlay.Thresholds != (scoring.Thresholds{}) {
		c.Thresholds = overlay.Thresholds
	}
	if len(overlay.Organizations) > 0 {
		if c.Organizations == nil {
			c.Organizations = make(map[string]scoring.Override)
		}
		maps.Copy(c.Organizations, overlay.Organizations)
	}
	if overlay.RulesTimeout != "" {
		c.RulesTimeout = overlay.RulesTimeout
	}
	if overlay.FactTimeout != "" {
		c.FactTimeout = overlay.FactTimeout
	}
	if overlay.CitationTimeout != "" {
		c.CitationTimeout = overlay.CitationTimeout
	}
	if overlay.ConsistencyTimeout != "" {
		c.ConsistencyTimeout = overlay.ConsistencyTimeout
	}
	if overlay.CorrectionTimeout != "" {
		c.CorrectionTimeout = overlay.CorrectionTimeout
	}
	if overlay.MaxClaims != 0 {
		c.MaxClaims = overlay.MaxClaims
	}
	if overlay.MaxCitations != 0 {
		c.MaxCitations = overlay.MaxCitations
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
	if overlay.HistoryLimit != 0 {
		c.HistoryLimit = overlay.HistoryLimit
	}
	if overlay.Matcher != "" {
		c.Matcher = overlay.Matcher
	}
}

func (c *ValidationConfig) loadDefaults() {
	if c.Weights.IsZero() {
		c.Weights = scoring.DefaultProfile()
	}
	if c.Thresholds == (scoring.Thresholds{}) {
		c.Thresholds = scoring.DefaultThresholds()
	}
	if c.RulesTimeout == "" {
		c.RulesTimeout = "5s"
	}
	if c.FactTimeout == "" {
		c.FactTimeout = "10s"
	}
	if c.CitationTimeout == "" {
		c.CitationTimeout = "15s"
	}
	if c.ConsistencyTimeout == "" {
		c.ConsistencyTimeout = "5s"
	}
	if c.CorrectionTimeout == "" {
		c.CorrectionTimeout = "20s"
	}
	if c.MaxClaims <= 0 {
		c.MaxClaims = 10
	}
	if c.MaxCitations <= 0 {
		c.MaxCitations = 5
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 10
	}
	if c.Matcher == "" {
		c.Matcher = "substring"
	}
}

func (c *ValidationConfig) loadEnv() {
	if v := os.Getenv("VERITY_VALIDATION_BLOCK_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Thresholds.Block = f
		}
	}
	if v := os.Getenv("VERITY_VALIDATION_FLAG_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Thresholds.Flag = f
		}
	}
	if v := os.Getenv("VERITY_VALIDATION_FACT_TIMEOUT"); v != "" {
		c.FactTimeout = v
	}
	if v := os.Getenv("VERITY_VALIDATION_CITATION_TIMEOUT"); v != "" {
		c.CitationTimeout = v
	}
	if v := os.Getenv("VERITY_VALIDATION_CORRECTION_TIMEOUT"); v != "" {
		c.CorrectionTimeout = v
	}
	if v := os.Getenv("VERITY_VALIDATION_MAX_CLAIMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxClaims = n
		}
	}
	if v := os.Getenv("VERITY_VALIDATION_MAX_CITATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxCitations = n
		}
	}
	if v := os.Getenv("VERITY_VALIDATION_MATCHER"); v != "" {
		c.Matcher = v
	}
}

func (c *ValidationConfig) validate() error {
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	for key := range c.Organizations {
		if _, err := uuid.Parse(key); err != nil {
			return fmt.Errorf("invalid organization override key %q: %w", key, err)
		}
	}
	for name, v := range map[string]string{
		"rules_timeout":       c.RulesTimeout,
		"fact_timeout":        c.FactTimeout,
		"citation_timeout":    c.CitationTimeout,
		"consistency_timeout": c.ConsistencyTimeout,
		"correction_timeout":  c.CorrectionTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if c.Matcher != "substring" && c.Matcher != "token" {
		return fmt.Errorf("invalid matcher %q: want substring or token", c.Matcher)
	}
	return nil
}
